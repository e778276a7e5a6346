package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "BLOG_MIGRATOR_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	rewriterAPIKeyEnv = "REWRITER_API_KEY"
	rewriterModelEnv  = "REWRITER_MODEL"
	bloggerEndpoint   = "BLOGGER_ENDPOINT"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Validation errors returned by Config.Validate.
var (
	ErrUnknownDriver      = errors.New("database.driver must be 'sqlite' or 'postgres'")
	ErrMissingDSN         = errors.New("database.dsn is required")
	ErrInvalidTimeout     = errors.New("timeouts must be at least 1 second")
	ErrInvalidMaxPosts    = errors.New("extractor.defaultMaxPosts must be between 1 and 100")
	ErrInvalidPostsPerDay = errors.New("scheduler.postsPerDay must be at least 1")
	ErrInvalidSpacing     = errors.New("scheduler.hoursBetweenPosts must be at least 1")
	ErrInvalidPoll        = errors.New("scheduler.pollIntervalSeconds must be at least 1")
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Extractor     ExtractorConfig    `yaml:"extractor"`
	Rewriter      RewriterConfig     `yaml:"rewriter"`
	Publisher     PublisherConfig    `yaml:"publisher"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ExtractorConfig tunes source fetching.
type ExtractorConfig struct {
	UserAgent       string `yaml:"userAgent"`
	TimeoutSeconds  int    `yaml:"timeoutSeconds"`
	DefaultMaxPosts int    `yaml:"defaultMaxPosts"`
}

// Timeout returns the fetch timeout as a duration.
func (e ExtractorConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// RewriterConfig defines how to contact the rewriting model.
type RewriterConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	SystemPrompt   string `yaml:"systemPrompt"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// PublisherConfig holds transport-level settings shared by all destinations.
type PublisherConfig struct {
	BloggerEndpoint     string `yaml:"bloggerEndpoint"`
	SMTPTimeoutSeconds  int    `yaml:"smtpTimeoutSeconds"`
	ImageTimeoutSeconds int    `yaml:"imageTimeoutSeconds"`
}

// SchedulerConfig defines publishing slots and the auto-publish poll.
type SchedulerConfig struct {
	Timezone            string         `yaml:"timezone"`
	PostsPerDay         int            `yaml:"postsPerDay"`
	HoursBetweenPosts   int            `yaml:"hoursBetweenPosts"`
	PollIntervalSeconds int            `yaml:"pollIntervalSeconds"`
	location            *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// PollInterval returns the auto-publish poll period.
func (s SchedulerConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownDriver, c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return ErrMissingDSN
	}
	for name, seconds := range map[string]int{
		"extractor.timeoutSeconds":      c.Extractor.TimeoutSeconds,
		"rewriter.timeoutSeconds":       c.Rewriter.TimeoutSeconds,
		"publisher.smtpTimeoutSeconds":  c.Publisher.SMTPTimeoutSeconds,
		"publisher.imageTimeoutSeconds": c.Publisher.ImageTimeoutSeconds,
	} {
		if seconds < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, name)
		}
	}
	if c.Extractor.DefaultMaxPosts < 1 || c.Extractor.DefaultMaxPosts > 100 {
		return ErrInvalidMaxPosts
	}
	if c.Scheduler.PostsPerDay < 1 {
		return ErrInvalidPostsPerDay
	}
	if c.Scheduler.HoursBetweenPosts < 1 {
		return ErrInvalidSpacing
	}
	if c.Scheduler.PollIntervalSeconds < 1 {
		return ErrInvalidPoll
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env string
		dst *string
	}{
		{logLevelEnv, &c.Logging.Level},
		{databaseDriverEnv, &c.Database.Driver},
		{databaseDSNEnv, &c.Database.DSN},
		{rewriterAPIKeyEnv, &c.Rewriter.APIKey},
		{rewriterModelEnv, &c.Rewriter.Model},
		{bloggerEndpoint, &c.Publisher.BloggerEndpoint},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.Logging.Level, override.Logging.Level)

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
		// A DSN without a driver keeps the default driver.
		mergeString(&base.Database.Driver, override.Database.Driver)
	}

	mergeString(&base.Extractor.UserAgent, override.Extractor.UserAgent)
	mergeInt(&base.Extractor.TimeoutSeconds, override.Extractor.TimeoutSeconds)
	mergeInt(&base.Extractor.DefaultMaxPosts, override.Extractor.DefaultMaxPosts)

	mergeString(&base.Rewriter.Endpoint, override.Rewriter.Endpoint)
	mergeString(&base.Rewriter.Model, override.Rewriter.Model)
	mergeString(&base.Rewriter.APIKey, override.Rewriter.APIKey)
	mergeString(&base.Rewriter.SystemPrompt, override.Rewriter.SystemPrompt)
	mergeInt(&base.Rewriter.TimeoutSeconds, override.Rewriter.TimeoutSeconds)

	mergeString(&base.Publisher.BloggerEndpoint, override.Publisher.BloggerEndpoint)
	mergeInt(&base.Publisher.SMTPTimeoutSeconds, override.Publisher.SMTPTimeoutSeconds)
	mergeInt(&base.Publisher.ImageTimeoutSeconds, override.Publisher.ImageTimeoutSeconds)

	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	mergeInt(&base.Scheduler.PostsPerDay, override.Scheduler.PostsPerDay)
	mergeInt(&base.Scheduler.HoursBetweenPosts, override.Scheduler.HoursBetweenPosts)
	mergeInt(&base.Scheduler.PollIntervalSeconds, override.Scheduler.PollIntervalSeconds)

	mergeString(&base.Notifications.Telegram.BotToken, override.Notifications.Telegram.BotToken)
	mergeString(&base.Notifications.Telegram.ChatID, override.Notifications.Telegram.ChatID)

	return base
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "data/blog_migration.db"},
		Extractor: ExtractorConfig{
			TimeoutSeconds:  10,
			DefaultMaxPosts: 10,
		},
		Rewriter: RewriterConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			SystemPrompt:   "You are an expert content writer and SEO specialist.",
			TimeoutSeconds: 60,
		},
		Publisher: PublisherConfig{
			SMTPTimeoutSeconds:  30,
			ImageTimeoutSeconds: 10,
		},
		Scheduler: SchedulerConfig{
			Timezone:            defaultTimezone,
			PostsPerDay:         2,
			HoursBetweenPosts:   2,
			PollIntervalSeconds: 60,
			location:            tz,
		},
	}
}
