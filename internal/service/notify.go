package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"
)

// Notifier tells users about challenges and account changes
type Notifier interface {
	SendVerification(ctx context.Context, u *model.User, issued *challenge.Issued) error
	SendPasswordReset(ctx context.Context, u *model.User, issued *challenge.Issued) error
	SendEmailChanged(ctx context.Context, oldEmail string, u *model.User) error
}

type MailNotifier struct {
	Mailer  Mailer
	BaseURL string
	Now     func() time.Time
}

func NewMailNotifier(m Mailer, baseURL string) *MailNotifier {
	return &MailNotifier{
		Mailer:  m,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Now:     time.Now,
	}
}

func minutesUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Minutes()))
}

func (n *MailNotifier) data(u *model.User, issued *challenge.Issued, path string) mailData {
	now := n.Now()
	d := mailData{Username: u.Username}

	if issued.Token != "" {
		d.Link = n.BaseURL + path + "?token=" + url.QueryEscape(issued.Token)
		d.LinkMinutes = minutesUntil(issued.TokenExpiresAt, now)
	}

	if issued.Code != "" {
		d.Code = issued.Code
		d.CodeMinutes = minutesUntil(issued.CodeExpiresAt, now)
	}

	return d
}

func (n *MailNotifier) SendVerification(ctx context.Context, u *model.User, issued *challenge.Issued) error {
	html, err := render(verificationTmpl, n.data(u, issued, "/verify-email"))
	if err != nil {
		return fmt.Errorf("failed to render verification mail, %w", err)
	}

	return n.Mailer.Send(ctx, u.Email, "Verify your email address", html)
}

func (n *MailNotifier) SendPasswordReset(ctx context.Context, u *model.User, issued *challenge.Issued) error {
	html, err := render(resetTmpl, n.data(u, issued, "/reset-password"))
	if err != nil {
		return fmt.Errorf("failed to render reset mail, %w", err)
	}

	return n.Mailer.Send(ctx, u.Email, "Reset your password", html)
}

func (n *MailNotifier) SendEmailChanged(ctx context.Context, oldEmail string, u *model.User) error {
	html, err := render(emailChangedTmpl, mailData{Username: u.Username, NewEmail: u.Email})
	if err != nil {
		return fmt.Errorf("failed to render email change mail, %w", err)
	}

	return n.Mailer.Send(ctx, oldEmail, "Your email address was changed", html)
}
