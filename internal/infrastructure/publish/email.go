package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// Sender is the part of *mail.Client the email transport needs.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailTransport posts by sending a message to the blog's post-by-email address.
type EmailTransport struct {
	sender Sender
	from   string
	images *ImageFetcher
	logger *slog.Logger
}

var _ Transport = (*EmailTransport)(nil)

// NewSMTPSender dials cfg's SMTP relay with STARTTLS and PLAIN auth.
func NewSMTPSender(cfg domain.PublishConfig, timeout time.Duration) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}
	client, err := mail.NewClient(cfg.SMTPServer, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: smtp client: %v", domain.ErrTransport, err)
	}
	return client, nil
}

// NewEmailTransport sends as from through sender. images may be nil, in
// which case image URLs are ignored.
func NewEmailTransport(sender Sender, from string, images *ImageFetcher, log *slog.Logger) *EmailTransport {
	return &EmailTransport{sender: sender, from: from, images: images, logger: log}
}

// Deliver sends the post and returns a confirmation naming the address.
func (t *EmailTransport) Deliver(ctx context.Context, cfg domain.PublishConfig, req ports.PublishRequest) (string, error) {
	msg, err := t.buildMessage(ctx, cfg.EmailAddress, req)
	if err != nil {
		return "", err
	}
	if err := t.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("%w: send email to %s: %v", domain.ErrTransport, cfg.EmailAddress, err)
	}
	return fmt.Sprintf("Email sent to %s. Post will appear on your blog shortly.", cfg.EmailAddress), nil
}

func (t *EmailTransport) buildMessage(ctx context.Context, to string, req ports.PublishRequest) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(t.from); err != nil {
		return nil, domain.Invalid("smtp_username", "invalid sender address %q: %v", t.from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, domain.Invalid("email_address", "invalid destination %q: %v", to, err)
	}
	msg.Subject(req.Title)
	msg.SetBodyString(mail.TypeTextPlain, req.Content)
	msg.AddAlternativeString(mail.TypeTextHTML, FormatHTML(req.Content, req.Labels))

	images := req.Images
	if len(images) > maxEmailImages {
		images = images[:maxEmailImages]
	}
	if t.images == nil {
		return msg, nil
	}
	for idx, imageURL := range images {
		data, err := t.images.Fetch(ctx, imageURL)
		if err != nil {
			t.warn("image skipped", "url", imageURL, "error", err)
			continue
		}
		name := fmt.Sprintf("image%d.jpg", idx)
		cid := fmt.Sprintf("<image%d>", idx)
		if err := msg.EmbedReader(name, bytes.NewReader(data), mail.WithFileContentID(cid)); err != nil {
			t.warn("image embed failed", "url", imageURL, "error", err)
		}
	}
	return msg, nil
}

func (t *EmailTransport) warn(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}
