package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/mamadbah2/dpr/internal/config"
	"github.com/mamadbah2/dpr/internal/domain/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Dialer is the part of gomail.Dialer the sender uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers reports as HTML mail with the workbook attached.
type SMTPSender struct {
	cfg    config.SMTPConfig
	dialer Dialer
}

// NewSMTPSender builds a STARTTLS sender from configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Name identifies the channel in logs.
func (s *SMTPSender) Name() string { return config.ChannelSMTP }

// CheckCredentials reports the first missing SMTP setting.
func (s *SMTPSender) CheckCredentials() error {
	required := []struct{ key, value string }{
		{"SMTP_USERNAME", s.cfg.Username},
		{"SMTP_PASSWORD", s.cfg.Password},
		{"SENDER_EMAIL", s.cfg.SenderMail},
	}
	for _, r := range required {
		if r.value == "" {
			return &models.ConfigurationError{Setting: r.key, Err: models.ErrMissingCredentials}
		}
	}
	return nil
}

// Send mails msg to msg.To.Email.
func (s *SMTPSender) Send(ctx context.Context, msg models.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return &models.DeliveryError{Class: models.ErrorClassTransient, Err: err}
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.SenderMail, s.cfg.SenderName)
	m.SetAddressHeader("To", msg.To.Email, msg.To.Name)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	if len(msg.Attachment) > 0 {
		data := msg.Attachment
		m.Attach(msg.AttachmentName,
			gomail.SetHeader(map[string][]string{"Content-Type": {xlsxContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return Classify(fmt.Errorf("smtp send to %s: %w", msg.To.Email, err))
	}
	return nil
}

// Classify wraps an SMTP failure in a *models.DeliveryError.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	return &models.DeliveryError{Class: classOf(err), Err: err}
}

func classOf(err error) models.ErrorClass {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch {
		case tpErr.Code == 530 || tpErr.Code == 534 || tpErr.Code == 535:
			return models.ErrorClassAuth
		case tpErr.Code >= 400 && tpErr.Code < 500:
			return models.ErrorClassTransient
		default:
			return models.ErrorClassUnknown
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorClassTransient
	}

	// gomail flattens per-message errors into text.
	text := err.Error()
	switch {
	case strings.Contains(text, "535") || strings.Contains(strings.ToLower(text), "authentication"):
		return models.ErrorClassAuth
	case strings.Contains(text, "timeout") || strings.Contains(text, "connection reset"):
		return models.ErrorClassTransient
	}
	return models.ErrorClassUnknown
}
