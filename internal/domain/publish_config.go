package domain

import "time"

// PublishMethod selects the transport used to deliver posts to a destination.
type PublishMethod string

const (
	MethodAPI   PublishMethod = "api"
	MethodEmail PublishMethod = "email"
)

const (
	DefaultSMTPServer = "smtp.gmail.com"
	DefaultSMTPPort   = 587
)

// PublishConfig is a named destination plus the credentials needed to reach it.
type PublishConfig struct {
	ID            string
	BlogName      string
	PublishMethod PublishMethod
	BlogID        string
	APIKey        string
	EmailAddress  string
	SMTPServer    string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	IsDefault     bool
	CreatedAt     time.Time
}

// ApplyDefaults fills optional SMTP settings for email destinations.
func (c *PublishConfig) ApplyDefaults() {
	if c.PublishMethod != MethodEmail {
		return
	}
	if c.SMTPServer == "" {
		c.SMTPServer = DefaultSMTPServer
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = DefaultSMTPPort
	}
}

// RequiredFields lists mandatory fields per publish method.
func RequiredFields(method PublishMethod) []string {
	switch method {
	case MethodAPI:
		return []string{"blog_name", "blog_id", "api_key"}
	case MethodEmail:
		return []string{"blog_name", "email_address", "smtp_username", "smtp_password"}
	default:
		return nil
	}
}
