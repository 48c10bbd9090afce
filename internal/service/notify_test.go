package service_test

import (
	"context"
	"testing"
	"time"

	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailNotifier_Verification(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	mailer := &testutil.FakeMailer{}

	n := service.NewMailNotifier(mailer, "https://cook.example/")
	n.Now = func() time.Time { return now }

	u := &model.User{Username: "chef", Email: "chef@example.com"}
	issued := &challenge.Issued{
		Mode:           model.ModeBoth,
		Token:          "abc123",
		TokenExpiresAt: now.Add(time.Hour),
		Code:           "042917",
		CodeExpiresAt:  now.Add(15 * time.Minute),
	}

	require.NoError(t, n.SendVerification(context.Background(), u, issued))
	require.Len(t, mailer.Sent, 1)

	m := mailer.Sent[0]
	assert.Equal(t, "chef@example.com", m.To)
	assert.Contains(t, m.HTML, "https://cook.example/verify-email?token=abc123")
	assert.Contains(t, m.HTML, "042917")
	assert.Contains(t, m.HTML, "60 minutes")
	assert.Contains(t, m.HTML, "15 minutes")
	assert.Contains(t, m.HTML, "Hi chef")
}

func TestMailNotifier_ResetCodeOnly(t *testing.T) {
	mailer := &testutil.FakeMailer{}
	n := service.NewMailNotifier(mailer, "https://cook.example")

	u := &model.User{Username: "<b>chef</b>", Email: "chef@example.com"}
	issued := &challenge.Issued{Mode: model.ModeCode, Code: "123456", CodeExpiresAt: time.Now().Add(10 * time.Minute)}

	require.NoError(t, n.SendPasswordReset(context.Background(), u, issued))

	html := mailer.Sent[0].HTML
	assert.NotContains(t, html, "reset-password?token=")
	assert.Contains(t, html, "123456")
	assert.NotContains(t, html, "<b>chef</b>", "names are escaped")
}

func TestMailNotifier_EmailChangedGoesToOldAddress(t *testing.T) {
	mailer := &testutil.FakeMailer{}
	n := service.NewMailNotifier(mailer, "https://cook.example")

	u := &model.User{Username: "chef", Email: "new@example.com"}
	require.NoError(t, n.SendEmailChanged(context.Background(), "old@example.com", u))

	assert.Equal(t, "old@example.com", mailer.Sent[0].To)
	assert.Contains(t, mailer.Sent[0].HTML, "new@example.com")
}

func TestSweepChallenges(t *testing.T) {
	ctx := context.Background()
	users := testutil.NewMemoryUsers()
	now := time.Now().UTC()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	h := "hash"

	stale := users.Put(model.NewUser("stale", "", "stale@example.com", "x", ""))
	stale.EmailVerification = &model.Challenge{TokenHash: &h, TokenExpiresAt: &past, CodeHash: &h, CodeExpiresAt: &past}
	stale.PasswordReset = &model.Challenge{CodeHash: &h, CodeExpiresAt: &past}
	users.Put(stale)

	live := users.Put(model.NewUser("live", "", "live@example.com", "x", ""))
	live.EmailVerification = &model.Challenge{TokenHash: &h, TokenExpiresAt: &future, CodeHash: &h, CodeExpiresAt: &past}
	users.Put(live)

	n, err := service.SweepChallenges(ctx, users, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Nil(t, users.Get(stale.ID).EmailVerification)
	assert.Nil(t, users.Get(stale.ID).PasswordReset)
	assert.NotNil(t, users.Get(live.ID).EmailVerification)
}

func TestUploaderDisabled(t *testing.T) {
	var u *service.Uploader
	assert.False(t, u.Enabled())
	assert.NoError(t, u.Delete(context.Background(), "https://x/y.png"))

	_, err := service.NewUploader(nil).Upload(context.Background(), service.FolderRecipes, nil)
	assert.ErrorIs(t, err, service.ErrUploadsDisabled)
}
