package config

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// Mailer sends HTML mail over SMTP with mandatory STARTTLS.
type Mailer struct {
	host          string
	port          int
	user          string
	pass          string
	from          string
	skipTLSVerify bool
}

// NewMailer returns nil when SMTP is not configured.
func NewMailer(s *Settings) *Mailer {
	if s.SMTPHost == "" || s.SMTPFrom == "" {
		return nil
	}
	return &Mailer{
		host:          s.SMTPHost,
		port:          s.SMTPPort,
		user:          s.SMTPUser,
		pass:          s.SMTPPass,
		from:          s.SMTPFrom,
		skipTLSVerify: s.SMTPSkipTLSVerify,
	}
}

func (m *Mailer) SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if m == nil {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	d := mail.NewDialer(m.host, m.port, m.user, m.pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         m.host,
		InsecureSkipVerify: m.skipTLSVerify,
	}

	return d.DialAndSend(msg)
}
