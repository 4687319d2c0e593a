package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/dtroode/shopkeeper-auth/internal/config"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

var _ model.Mailer = (*SMTP)(nil)

// SMTP delivers mail through an authenticated SMTP relay.
type SMTP struct {
	client *mail.Client
	from   string
	logger *logger.Logger
}

// NewSMTP creates an SMTP mailer. No connection is made until Send.
func NewSMTP(cfg config.Mail, logger *logger.Logger) (*SMTP, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTP{client: client, from: cfg.From, logger: logger}, nil
}

// Send delivers one message. The context bounds the whole SMTP exchange.
func (s *SMTP) Send(ctx context.Context, m model.Mail) error {
	msg, err := buildMessage(s.from, m)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("Mailer: failed to send mail",
			"to", m.To,
			"subject", m.Subject,
			"error", err.Error())
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Debug("Mailer: mail sent", "to", m.To, "subject", m.Subject)

	return nil
}

func buildMessage(from string, m model.Mail) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	return msg, nil
}
