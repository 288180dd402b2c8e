package mailer

import (
	"context"
	"log"
	"sync"

	"github.com/noah-isme/pgr-adp-api/pkg/config"
)

// ConsoleMailer writes messages to the process log instead of sending them.
// It records everything it "sends" so tests can assert on delivery.
type ConsoleMailer struct {
	fromEmail string
	fromName  string

	mu   sync.Mutex
	sent []Message
}

// NewConsoleMailer constructs the development mailer.
func NewConsoleMailer(cfg config.MailerConfig) *ConsoleMailer {
	return &ConsoleMailer{fromEmail: cfg.FromEmail, fromName: cfg.FromName}
}

// Send logs the message and stores it in the sent list.
func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	log.Printf("mail to=%s subject=%q\n%s", msg.ToEmail, msg.Subject, msg.Body)
	return nil
}

// Sent returns a copy of all messages delivered so far.
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
