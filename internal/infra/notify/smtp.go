package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"bookline/internal/pkg/config"
	"bookline/internal/pkg/errs"
	"bookline/internal/usecase/commands"
)

// SMTPDispatcher sends plain-text mail through a relay. It holds no
// connection state; each send dials fresh, which is fine at notification
// volumes and keeps the dispatcher trivially safe for concurrent use.
type SMTPDispatcher struct {
	cfg config.MailConfig
}

func NewSMTPDispatcher(cfg config.Config) commands.Dispatcher {
	return &SMTPDispatcher{cfg: cfg.Mail}
}

func (d *SMTPDispatcher) Send(ctx context.Context, channel, recipient, subject, body string) error {
	if channel != "email" {
		return errs.New(fmt.Sprintf("unsupported channel %q", channel))
	}
	// smtp.SendMail has no context support; honor cancellation by
	// refusing to start a send that is already expired.
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(d.cfg.Host, d.cfg.Port)
	msg := buildMessage(d.cfg.From, recipient, subject, body)
	if err := smtp.SendMail(addr, nil, d.cfg.From, []string{recipient}, msg); err != nil {
		return errs.Wrap(err, "smtp send failed")
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
