package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrInvalidRecipient = errors.New("invalid email address")

// Mailer delivers one HTML message
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer() *SMTPMailer {
	d := gomail.NewDialer(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		viper.GetString("mail.username"),
		viper.GetString("mail.password"),
	)

	return &SMTPMailer{
		dialer: d,
		from:   viper.GetString("mail.sender"),
	}
}

// NewMailer returns an SMTP mailer, or a logging one when no host is set
func NewMailer() Mailer {
	if viper.GetString("mail.host") == "" {
		return LogMailer{}
	}

	return NewSMTPMailer()
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if to == "" || to == m.from {
		return ErrInvalidRecipient
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	// gomail can't be cancelled, so the send finishes in the background
	// if ctx ends first
	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail, %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Verify dials the SMTP server and authenticates without sending anything
func (m *SMTPMailer) Verify() error {
	s, err := m.dialer.Dial()
	if err != nil {
		return err
	}

	return s.Close()
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	zap.L().Warn("Mail not sent, no SMTP host configured", zap.String("to", to), zap.String("subject", subject))
	return nil
}
