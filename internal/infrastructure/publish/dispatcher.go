package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/go-mail"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// Transport is one delivery mechanism behind the dispatcher.
type Transport interface {
	Deliver(ctx context.Context, cfg domain.PublishConfig, req ports.PublishRequest) (string, error)
}

// TransportFactory builds a transport from the credentials held by cfg.
type TransportFactory func(ctx context.Context, cfg domain.PublishConfig) (Transport, error)

// Options configure the default transports.
type Options struct {
	BloggerEndpoint string
	SMTPTimeout     time.Duration
	ImageTimeout    time.Duration
}

type cachedTransport struct {
	key       string
	transport Transport
}

// Dispatcher routes a publish request to the transport selected by the
// config's publish method. It keeps at most one live transport per method and
// rebuilds it only when the credentials it was built from change.
type Dispatcher struct {
	mu        sync.Mutex
	factories map[domain.PublishMethod]TransportFactory
	cache     map[domain.PublishMethod]cachedTransport
	logger    *slog.Logger
}

var _ ports.Publisher = (*Dispatcher)(nil)

// NewDispatcher wires the Blogger API and SMTP transports.
func NewDispatcher(opts Options, log *slog.Logger) *Dispatcher {
	images := NewImageFetcher(&http.Client{Timeout: positive(opts.ImageTimeout, 10*time.Second)})
	return NewDispatcherWithFactories(log, map[domain.PublishMethod]TransportFactory{
		domain.MethodAPI: func(ctx context.Context, cfg domain.PublishConfig) (Transport, error) {
			return NewAPITransport(ctx, cfg.APIKey, opts.BloggerEndpoint)
		},
		domain.MethodEmail: func(_ context.Context, cfg domain.PublishConfig) (Transport, error) {
			sender, err := NewSMTPSender(cfg, opts.SMTPTimeout)
			if err != nil {
				return nil, err
			}
			return NewEmailTransport(sender, cfg.SMTPUsername, images, log), nil
		},
	})
}

// NewDispatcherWithFactories allows swapping transports, mainly in tests.
func NewDispatcherWithFactories(log *slog.Logger, factories map[domain.PublishMethod]TransportFactory) *Dispatcher {
	return &Dispatcher{
		factories: factories,
		cache:     make(map[domain.PublishMethod]cachedTransport),
		logger:    log,
	}
}

// Validate checks the method-specific required fields without touching any
// transport.
func (d *Dispatcher) Validate(cfg domain.PublishConfig) error {
	cfg.ApplyDefaults()
	if strings.TrimSpace(cfg.BlogName) == "" {
		return domain.Invalid("blog_name", "blog name is required")
	}

	switch cfg.PublishMethod {
	case domain.MethodAPI:
		if strings.TrimSpace(cfg.BlogID) == "" {
			return domain.Invalid("blog_id", "blog ID is required for API publishing")
		}
		if !IsValidBlogID(cfg.BlogID) {
			return domain.Invalid("blog_id", "blog ID must be numeric, got %q", cfg.BlogID)
		}
		if strings.TrimSpace(cfg.APIKey) == "" {
			return domain.Invalid("api_key", "API key is required for API publishing")
		}
	case domain.MethodEmail:
		if strings.TrimSpace(cfg.EmailAddress) == "" {
			return domain.Invalid("email_address", "Blogger email address is required for email publishing")
		}
		if !ValidateBloggerEmail(cfg.EmailAddress) {
			return domain.Invalid("email_address", "invalid Blogger email format: %s", cfg.EmailAddress)
		}
		if strings.TrimSpace(cfg.SMTPUsername) == "" {
			return domain.Invalid("smtp_username", "SMTP username is required for email publishing")
		}
		// The username doubles as the From address.
		if err := mail.NewMsg().From(cfg.SMTPUsername); err != nil {
			return domain.Invalid("smtp_username", "SMTP username must be a sender email address, got %q", cfg.SMTPUsername)
		}
		if cfg.SMTPPassword == "" {
			return domain.Invalid("smtp_password", "SMTP password is required for email publishing")
		}
		if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
			return domain.Invalid("smtp_port", "invalid SMTP port %d", cfg.SMTPPort)
		}
	case "":
		return domain.Invalid("publish_method", "publish method is required")
	default:
		return domain.Invalid("publish_method", "invalid publish method: %s", cfg.PublishMethod)
	}
	return nil
}

// Publish validates cfg, then delivers req through the matching transport
// and returns its reference: a post URL or an email confirmation.
func (d *Dispatcher) Publish(ctx context.Context, cfg domain.PublishConfig, req ports.PublishRequest) (string, error) {
	cfg.ApplyDefaults()
	if err := d.Validate(cfg); err != nil {
		return "", err
	}

	transport, err := d.transportFor(ctx, cfg)
	if err != nil {
		return "", err
	}

	req.Labels = FormatLabels(req.Labels)
	ref, err := transport.Deliver(ctx, cfg, req)
	if err != nil {
		if errors.Is(err, domain.ErrTransport) || errors.Is(err, domain.ErrValidation) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	d.debug("post delivered", "method", cfg.PublishMethod, "blog", cfg.BlogName, "reference", ref)
	return ref, nil
}

func (d *Dispatcher) transportFor(ctx context.Context, cfg domain.PublishConfig) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := credentialKey(cfg)
	if cached, ok := d.cache[cfg.PublishMethod]; ok && cached.key == key {
		return cached.transport, nil
	}

	factory, ok := d.factories[cfg.PublishMethod]
	if !ok {
		return nil, domain.Invalid("publish_method", "no transport for %s", cfg.PublishMethod)
	}
	transport, err := factory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d.cache[cfg.PublishMethod] = cachedTransport{key: key, transport: transport}
	d.debug("transport configured", "method", cfg.PublishMethod)
	return transport, nil
}

func credentialKey(cfg domain.PublishConfig) string {
	switch cfg.PublishMethod {
	case domain.MethodAPI:
		return cfg.APIKey
	case domain.MethodEmail:
		return strings.Join([]string{cfg.SMTPServer, strconv.Itoa(cfg.SMTPPort), cfg.SMTPUsername, cfg.SMTPPassword}, "\x00")
	default:
		return ""
	}
}

func positive(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func (d *Dispatcher) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
