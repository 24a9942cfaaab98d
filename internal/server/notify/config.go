package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
)

// NewTransport picks the transport named by cfg.MailTransport. With no
// explicit choice, SMTP is used when host, user and password are all set and
// the log transport otherwise.
func NewTransport(ctx context.Context, cfg *config.Config, logger logging.Logger) (Transport, error) {
	switch cfg.MailTransport {
	case config.MailTransportSES:
		return NewSESTransport(ctx, SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
			Endpoint:        cfg.SESEndpoint,
			From:            cfg.MailFrom,
		})
	case config.MailTransportSMTP:
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp transport requires a host")
		}
		return NewSMTPTransport(smtpConfig(cfg)), nil
	case config.MailTransportLog:
		return NewLogTransport(logger), nil
	case config.MailTransportAuto:
		if cfg.SMTPHost != "" && cfg.SMTPUser != "" && cfg.SMTPPassword != "" {
			return NewSMTPTransport(smtpConfig(cfg)), nil
		}
		return NewLogTransport(logger), nil
	}
	return nil, fmt.Errorf("unsupported mail transport %q", cfg.MailTransport)
}

// NewFromConfig builds a Notifier around the transport selected by cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Notifier, error) {
	t, err := NewTransport(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(t, logger, cfg.MailTimeout), nil
}

func smtpConfig(cfg *config.Config) SMTPConfig {
	return SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
