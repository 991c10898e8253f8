package notifier

import (
	"errors"
	"fmt"

	"github.com/ibeckermayer/elongatd/internal/config"
	"github.com/ibeckermayer/elongatd/internal/notifier/providers"
	"github.com/ibeckermayer/elongatd/internal/render"
)

// ErrDisabled is returned by NewFromConfig when notifications are off
var ErrDisabled = errors.New("notifications are disabled")

// Notifier sends "thread detected" notifications
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier with the given sender
func New(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// NewFromConfig creates an SMTP notifier based on configuration
func NewFromConfig(cfg config.NotifyConfig) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.SMTPHost == "" || cfg.ToAddr == "" {
		return nil, fmt.Errorf("notify.smtp_host and notify.to_address are required")
	}

	from := cfg.FromAddr
	if from == "" {
		from = cfg.SMTPUser
	}
	sender := providers.NewSMTPSender(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		from,
	)
	return New(sender, cfg.ToAddr), nil
}

// SendNotice sends a rendered notice to the configured recipient
func (n *Notifier) SendNotice(notice *render.Notice) error {
	if err := n.sender.Send(n.to, notice.Subject, notice.HTMLBody, notice.PlainBody); err != nil {
		return fmt.Errorf("failed to send notice: %w", err)
	}
	return nil
}
