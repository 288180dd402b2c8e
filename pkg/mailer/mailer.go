package mailer

import (
	"context"

	"github.com/noah-isme/pgr-adp-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Body    string
}

// Mailer delivers email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a mailer implementation from configuration. Unknown providers
// fall back to the console mailer so development environments never need
// credentials.
func New(cfg config.MailerConfig) Mailer {
	if cfg.Provider == "sendgrid" && cfg.APIKey != "" {
		return NewSendgridMailer(cfg)
	}
	return NewConsoleMailer(cfg)
}
