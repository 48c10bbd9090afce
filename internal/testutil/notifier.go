package testutil

import (
	"context"
	"sync"

	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/service"
)

var (
	_ service.Notifier = (*FakeNotifier)(nil)
	_ service.Mailer   = (*FakeMailer)(nil)
)

// FakeNotifier keeps the last challenge sent to each address
type FakeNotifier struct {
	mu           sync.Mutex
	Verification map[string]*challenge.Issued
	Reset        map[string]*challenge.Issued
	EmailChanged []string

	// Err is returned from every call when set
	Err error
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{
		Verification: make(map[string]*challenge.Issued),
		Reset:        make(map[string]*challenge.Issued),
	}
}

func (f *FakeNotifier) SendVerification(_ context.Context, u *model.User, issued *challenge.Issued) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}

	f.Verification[u.Email] = issued
	return nil
}

func (f *FakeNotifier) SendPasswordReset(_ context.Context, u *model.User, issued *challenge.Issued) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}

	f.Reset[u.Email] = issued
	return nil
}

func (f *FakeNotifier) SendEmailChanged(_ context.Context, oldEmail string, _ *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}

	f.EmailChanged = append(f.EmailChanged, oldEmail)
	return nil
}

func (f *FakeNotifier) LastVerification(email string) *challenge.Issued {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Verification[email]
}

func (f *FakeNotifier) LastReset(email string) *challenge.Issued {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reset[email]
}

type Mail struct {
	To, Subject, HTML string
}

type FakeMailer struct {
	mu   sync.Mutex
	Sent []Mail
}

func (f *FakeMailer) Send(_ context.Context, to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sent = append(f.Sent, Mail{To: to, Subject: subject, HTML: html})
	return nil
}
