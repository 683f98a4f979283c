package infra

import (
	"fmt"
	"net/smtp"
	"path/filepath"

	"cierrecaja/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends closure reports to supervisors over SMTP.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPUser
	if cfg.StoreName != "" && from != "" {
		from = fmt.Sprintf("%s <%s>", cfg.StoreName, cfg.SMTPUser)
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     from,
	}
}

// Enabled is false when no SMTP host is configured; email jobs are then skipped.
func (m *Mailer) Enabled() bool { return m.host != "" }

// Send delivers a plain-text message, attaching the closure PDF when pdfPath is set.
func (m *Mailer) Send(to, subject, body, pdfPath string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", filepath.Base(pdfPath), err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
