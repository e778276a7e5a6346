package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"BlogMigrator/internal/config"
	"BlogMigrator/internal/infrastructure/llm"
	"BlogMigrator/internal/infrastructure/parser"
	"BlogMigrator/internal/infrastructure/publish"
	"BlogMigrator/internal/infrastructure/scheduler"
	"BlogMigrator/internal/infrastructure/storage"
	"BlogMigrator/internal/infrastructure/telegram"
	"BlogMigrator/internal/logging"
	"BlogMigrator/internal/ports"
	"BlogMigrator/internal/scanner"
	"BlogMigrator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
	now    func() time.Time

	repo       *storage.SQLRepository
	publisher  ports.Publisher
	ingestor   *usecase.Ingestor
	rewriting  *usecase.Rewriting
	scheduler  *usecase.Scheduler
	publishing *usecase.Publishing
	auto       *usecase.AutoPublisher
}

type options struct {
	out       io.Writer
	now       func() time.Time
	extractor ports.Extractor
	rewriter  ports.Rewriter
	publisher ports.Publisher
	notifier  ports.Notifier
	ticker    ports.Ticker
}

// Option replaces a default collaborator.
type Option func(*options)

// WithOutput redirects command output (stdout by default).
func WithOutput(w io.Writer) Option { return func(o *options) { o.out = w } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithExtractor replaces the feed/webpage chain.
func WithExtractor(e ports.Extractor) Option { return func(o *options) { o.extractor = e } }

// WithRewriter replaces the chat-completions rewriter.
func WithRewriter(r ports.Rewriter) Option { return func(o *options) { o.rewriter = r } }

// WithPublisher replaces the publish dispatcher.
func WithPublisher(p ports.Publisher) Option { return func(o *options) { o.publisher = p } }

// WithNotifier replaces the Telegram notifier.
func WithNotifier(n ports.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithTicker replaces the interval ticker used by run.
func WithTicker(t ports.Ticker) Option { return func(o *options) { o.ticker = t } }

// New opens the store and builds every use case.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	o := options{out: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	repo, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if o.extractor == nil {
		fetcher := parser.NewFetcher(&http.Client{Timeout: cfg.Extractor.Timeout()}, cfg.Extractor.UserAgent)
		o.extractor = scanner.NewChain(logging.Component(baseLogger, "extractor"),
			parser.NewFeedStrategy(fetcher, logging.Component(baseLogger, "extractor.feed")),
			parser.NewWebpageStrategy(fetcher, logging.Component(baseLogger, "extractor.webpage")),
		)
	}
	if o.rewriter == nil {
		o.rewriter = llm.NewRewriter(cfg.Rewriter)
	}
	if o.publisher == nil {
		o.publisher = publish.NewDispatcher(publish.Options{
			BloggerEndpoint: cfg.Publisher.BloggerEndpoint,
			SMTPTimeout:     time.Duration(cfg.Publisher.SMTPTimeoutSeconds) * time.Second,
			ImageTimeout:    time.Duration(cfg.Publisher.ImageTimeoutSeconds) * time.Second,
		}, logging.Component(baseLogger, "publish"))
	}
	if o.notifier == nil {
		tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
		if tg.Enabled() {
			o.notifier = tg
		}
	}
	if o.ticker == nil {
		o.ticker = scheduler.NewIntervalTicker(cfg.Scheduler.PollInterval())
	}

	publishing := usecase.NewPublishing(usecase.PublishingDeps{
		Posts:     repo,
		Configs:   repo,
		Publisher: o.publisher,
		Notifier:  o.notifier,
		Logger:    logging.Component(baseLogger, "publishing"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		out:        o.out,
		now:        o.now,
		repo:       repo,
		publisher:  o.publisher,
		ingestor:   usecase.NewIngestor(repo, repo, o.extractor, logging.Component(baseLogger, "ingest")),
		rewriting:  usecase.NewRewriting(repo, o.rewriter, logging.Component(baseLogger, "rewrite")),
		scheduler:  usecase.NewScheduler(repo),
		publishing: publishing,
		auto:       usecase.NewAutoPublisher(o.ticker, publishing, logging.Component(baseLogger, "autopublish")),
	}, nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.repo.Close()
}

// Serve keeps publishing due posts until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.auto.Start(ctx); err != nil {
		return fmt.Errorf("start auto-publish: %w", err)
	}
	a.logger.Info("auto-publish running", "interval", a.cfg.Scheduler.PollInterval())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.auto.Stop(stopCtx)
}
