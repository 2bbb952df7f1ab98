package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// Mailer sends receipt emails through plain SMTP.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
}

func NewMailer(host string, port int, user, password string) *Mailer {
	return &Mailer{host: host, port: port, user: user, password: password}
}

// Configured reports whether SMTP settings are present. Receipt mailing is
// optional; an unconfigured mailer just skips sending.
func (m *Mailer) Configured() bool { return m.host != "" }

// SendReceipt mails the receipt PDF as an attachment.
func (m *Mailer) SendReceipt(to, subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)
	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return err
		}
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	return e.Send(addr, smtp.PlainAuth("", m.user, m.password, m.host))
}
