package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/jordan-wright/email"
)

// SMTPConfig describes an SMTP relay. STARTTLS and PLAIN auth are used when
// both User and Password are set.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPTransport sends mail through an SMTP relay.
type SMTPTransport struct {
	cfg SMTPConfig

	// send is a seam for tests.
	send func(e *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg, send: deliver}
}

func deliver(e *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error {
	if tlsConfig == nil {
		return e.Send(addr, auth)
	}
	return e.SendWithStartTLS(addr, auth, tlsConfig)
}

func (t *SMTPTransport) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: smtp: %v", common.ErrTransportFailure, err)
	}

	e := email.NewEmail()
	e.From = t.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))

	var (
		auth      smtp.Auth
		tlsConfig *tls.Config
	)
	if t.cfg.User != "" && t.cfg.Password != "" {
		auth = smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
		tlsConfig = &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
	}

	// The mail library has no context support. A session outliving ctx is
	// abandoned and finishes or fails on its own.
	done := make(chan error, 1)
	go func() {
		done <- t.send(e, addr, auth, tlsConfig)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: smtp: %v", common.ErrTransportFailure, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: smtp: %v", common.ErrTransportFailure, ctx.Err())
	}
}
