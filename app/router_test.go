package app_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitwise74/recipe-api/app"
	"bitwise74/recipe-api/config"
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/testutil"
	"bitwise74/recipe-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type env struct {
	t        *testing.T
	router   *gin.Engine
	users    *testutil.MemoryUsers
	notifier *testutil.FakeNotifier
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SECURITY_RATE_LIMIT", "1000")
	t.Setenv("APP_ENV", "test")
	require.NoError(t, config.Load(""))

	users := testutil.NewMemoryUsers()
	notifier := testutil.NewFakeNotifier()

	argon := security.New()
	argon.Memory = 1024
	argon.Iterations = 1

	d := &internal.Deps{
		Users:     users,
		Argon:     argon,
		Mailer:    &testutil.FakeMailer{},
		Notifier:  notifier,
		Uploader:  service.NewUploader(nil),
		Verify:    challenge.New(challenge.EmailVerification, users, config.ChallengeOptions("verify")),
		Reset:     challenge.New(challenge.PasswordReset, users, config.ChallengeOptions("reset")),
		JWTSecret: []byte(testSecret),
		JWTTTL:    time.Hour,
		StartedAt: time.Now(),
	}

	return &env{
		t:        t,
		router:   app.NewRouter(t.Context(), d),
		users:    users,
		notifier: notifier,
	}
}

func (e *env) do(method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}

	return w, env
}

type registered struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (e *env) register(username, email, password string) registered {
	e.t.Helper()

	w, res := e.do(http.MethodPost, "/api/auth/register", gin.H{
		"username":        username,
		"email":           email,
		"password":        password,
		"confirmPassword": password,
	}, "")
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	var out registered
	require.NoError(e.t, json.Unmarshal(res.Data, &out))
	return out
}

func (e *env) verify(reg registered) {
	e.t.Helper()

	issued := e.notifier.LastVerification(reg.User.Email)
	require.NotNil(e.t, issued)

	w, _ := e.do(http.MethodPost, "/api/auth/verify/confirm-code", gin.H{"code": issued.Code}, reg.Token)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
}

func TestRegister_VerifyByCode(t *testing.T) {
	e := setup(t)
	reg := e.register("chef_1", "Chef@Example.com", "Secret123")

	assert.Equal(t, "chef@example.com", reg.User.Email)
	assert.Equal(t, "Anonymous", reg.User.Fullname)
	assert.False(t, reg.User.EmailVerified)

	issued := e.notifier.LastVerification("chef@example.com")
	require.NotNil(t, issued)
	assert.Equal(t, model.ModeBoth, issued.Mode)

	e.verify(reg)

	u, err := e.users.FindByEmail(t.Context(), "chef@example.com")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Nil(t, u.EmailVerification)

	w, res := e.do(http.MethodPost, "/api/auth/verify/confirm-code", gin.H{"code": issued.Code}, reg.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_VERIFIED", res.Error.Code)
}

func TestRegister_Rejects(t *testing.T) {
	e := setup(t)
	e.register("taken", "taken@example.com", "Secret123")

	cases := []struct {
		name string
		body gin.H
		code string
	}{
		{"weak password", gin.H{"username": "new_one", "email": "a@example.com", "password": "secret", "confirmPassword": "secret"}, "VALIDATION_ERROR"},
		{"mismatch", gin.H{"username": "new_one", "email": "a@example.com", "password": "Secret123", "confirmPassword": "Secret124"}, "VALIDATION_ERROR"},
		{"bad username", gin.H{"username": "no spaces", "email": "a@example.com", "password": "Secret123", "confirmPassword": "Secret123"}, "VALIDATION_ERROR"},
		{"bad email", gin.H{"username": "new_one", "email": "Bob <a@example.com>", "password": "Secret123", "confirmPassword": "Secret123"}, "VALIDATION_ERROR"},
		{"duplicate email", gin.H{"username": "new_one", "email": "TAKEN@example.com", "password": "Secret123", "confirmPassword": "Secret123"}, "DUPLICATE_KEY"},
		{"duplicate username", gin.H{"username": "taken", "email": "b@example.com", "password": "Secret123", "confirmPassword": "Secret123"}, "DUPLICATE_KEY"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, res := e.do(http.MethodPost, "/api/auth/register", tc.body, "")
			assert.Equal(t, tc.code, res.Error.Code)
		})
	}
}

func TestVerify_LinkToken(t *testing.T) {
	e := setup(t)
	reg := e.register("linker", "linker@example.com", "Secret123")
	token := e.notifier.LastVerification("linker@example.com").Token

	w, _ := e.do(http.MethodGet, "/api/auth/verify/confirm?token="+token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, e.users.Get(reg.User.ID).EmailVerified)

	_, res := e.do(http.MethodPost, "/api/auth/verify/confirm", gin.H{"token": token}, "")
	assert.Equal(t, "INVALID_OR_EXPIRED_CHALLENGE", res.Error.Code)

	_, res = e.do(http.MethodGet, "/api/auth/verify/confirm?token=abc", nil, "")
	assert.Equal(t, "MALFORMED_TOKEN", res.Error.Code)
}

func TestVerify_WrongCode(t *testing.T) {
	e := setup(t)
	reg := e.register("guesser", "guesser@example.com", "Secret123")

	code := e.notifier.LastVerification("guesser@example.com").Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, res := e.do(http.MethodPost, "/api/auth/verify/confirm-code", gin.H{"code": wrong}, reg.Token)
	assert.Equal(t, "WRONG_CODE", res.Error.Code)
	assert.Equal(t, 1, e.users.Get(reg.User.ID).EmailVerification.CodeAttempts)
}

func TestVerifyRequest_Cooldown(t *testing.T) {
	e := setup(t)
	reg := e.register("eager", "eager@example.com", "Secret123")

	w, res := e.do(http.MethodPost, "/api/auth/verify/request", nil, reg.Token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RESEND_COOLDOWN", res.Error.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestLogin(t *testing.T) {
	e := setup(t)
	reg := e.register("cook", "cook@example.com", "Secret123")

	w, _ := e.do(http.MethodPost, "/api/auth/login", gin.H{"identifier": "cook", "password": "Secret123"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Result().Cookies())

	w, _ = e.do(http.MethodPost, "/api/auth/login", gin.H{"identifier": "COOK@example.com", "password": "Secret123"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	_, res := e.do(http.MethodPost, "/api/auth/login", gin.H{"identifier": "cook", "password": "Wrong1234"}, "")
	assert.Equal(t, "INVALID_CREDENTIALS", res.Error.Code)

	_, res = e.do(http.MethodPost, "/api/auth/login", gin.H{"identifier": "nobody", "password": "Secret123"}, "")
	assert.Equal(t, "INVALID_CREDENTIALS", res.Error.Code)

	u := e.users.Get(reg.User.ID)
	u.Status = model.StatusBlocked
	e.users.Put(u)

	w, res = e.do(http.MethodPost, "/api/auth/login", gin.H{"identifier": "cook", "password": "Secret123"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_BLOCKED", res.Error.Code)
}

func TestForgotAndResetByCode(t *testing.T) {
	e := setup(t)
	reg := e.register("forgetful", "forgetful@example.com", "Secret123")

	// Unverified accounts get the generic answer but no mail
	_, res := e.do(http.MethodPost, "/api/auth/forgot", gin.H{"email": "forgetful@example.com"}, "")
	generic := res.Message
	assert.Nil(t, e.notifier.LastReset("forgetful@example.com"))

	e.verify(reg)

	w, res := e.do(http.MethodPost, "/api/auth/forgot", gin.H{"email": "Forgetful@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, generic, res.Message)

	_, res = e.do(http.MethodPost, "/api/auth/forgot", gin.H{"email": "ghost@example.com"}, "")
	assert.Equal(t, generic, res.Message)

	issued := e.notifier.LastReset("forgetful@example.com")
	require.NotNil(t, issued)

	w, _ = e.do(http.MethodPost, "/api/auth/reset/code", gin.H{
		"email":           "forgetful@example.com",
		"code":            issued.Code,
		"password":        "Better456",
		"confirmPassword": "Better456",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = e.do(http.MethodPost, "/api/auth/login", gin.H{"identifier": "forgetful", "password": "Better456"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// The link from the same mail died with the code
	_, res = e.do(http.MethodPost, "/api/auth/reset/token", gin.H{
		"token":           issued.Token,
		"password":        "Third789x",
		"confirmPassword": "Third789x",
	}, "")
	assert.Equal(t, "INVALID_OR_EXPIRED_CHALLENGE", res.Error.Code)
}

func TestResetByToken(t *testing.T) {
	e := setup(t)
	reg := e.register("tokened", "tokened@example.com", "Secret123")
	e.verify(reg)

	e.do(http.MethodPost, "/api/auth/forgot", gin.H{"email": "tokened@example.com"}, "")
	issued := e.notifier.LastReset("tokened@example.com")
	require.NotNil(t, issued)

	w, _ := e.do(http.MethodPost, "/api/auth/reset/token", gin.H{
		"token":           issued.Token,
		"password":        "Better456",
		"confirmPassword": "Better456",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, res := e.do(http.MethodPost, "/api/auth/reset/code", gin.H{
		"email":           "tokened@example.com",
		"code":            issued.Code,
		"password":        "Third789x",
		"confirmPassword": "Third789x",
	}, "")
	assert.Equal(t, "CHALLENGE_UNAVAILABLE", res.Error.Code)
}

func TestUpdateInfo_EmailChange(t *testing.T) {
	e := setup(t)
	reg := e.register("mover", "old@example.com", "Secret123")
	e.verify(reg)

	w, _ := e.do(http.MethodPut, "/api/users/update-info", gin.H{"email": "new@example.com", "fullname": "Mo <i>Ver</i>"}, reg.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u := e.users.Get(reg.User.ID)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "Mo Ver", u.Fullname)
	assert.False(t, u.EmailVerified)
	assert.NotNil(t, u.LastEmailChangedAt)

	assert.Equal(t, []string{"old@example.com"}, e.notifier.EmailChanged)
	assert.NotNil(t, e.notifier.LastVerification("new@example.com"))

	_, res := e.do(http.MethodPut, "/api/users/update-info", gin.H{}, reg.Token)
	assert.Equal(t, "NOTHING_TO_UPDATE", res.Error.Code)
}

func TestChangePassword(t *testing.T) {
	e := setup(t)
	reg := e.register("changer", "changer@example.com", "Secret123")

	_, res := e.do(http.MethodPut, "/api/users/change-password", gin.H{
		"currentPassword": "Nope12345",
		"newPassword":     "Better456",
		"confirmPassword": "Better456",
	}, reg.Token)
	assert.Equal(t, "WRONG_PASSWORD", res.Error.Code)

	w, _ := e.do(http.MethodPut, "/api/users/change-password", gin.H{
		"currentPassword": "Secret123",
		"newPassword":     "Better456",
		"confirmPassword": "Better456",
	}, reg.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(http.MethodPost, "/api/auth/login", gin.H{"identifier": "changer", "password": "Better456"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminUsers(t *testing.T) {
	e := setup(t)
	boss := e.register("boss", "boss@example.com", "Secret123")
	minion := e.register("minion", "minion@example.com", "Secret123")

	u := e.users.Get(boss.User.ID)
	u.Role = model.RoleAdmin
	e.users.Put(u)

	w, _ := e.do(http.MethodGet, "/api/users", nil, minion.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, res := e.do(http.MethodGet, "/api/users?limit=1", nil, boss.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Limit)

	path := "/api/users/" + minion.User.ID.Hex() + "/status"
	w, _ = e.do(http.MethodPut, path, gin.H{"status": "blocked"}, boss.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Blocked users lose access immediately
	w, _ = e.do(http.MethodGet, "/api/users/profile", nil, minion.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, res = e.do(http.MethodPut, "/api/users/"+boss.User.ID.Hex()+"/role", gin.H{"role": "user"}, boss.Token)
	assert.Equal(t, "SELF_ACTION", res.Error.Code)

	_, res = e.do(http.MethodGet, "/api/users/not-an-id", nil, boss.Token)
	assert.Equal(t, "INVALID_ID", res.Error.Code)

	w, _ = e.do(http.MethodDelete, "/api/users/"+minion.User.ID.Hex(), nil, boss.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, e.users.Get(minion.User.ID))
}

func TestHealth(t *testing.T) {
	e := setup(t)

	w, res := e.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, res.Success)

	w, res = e.do(http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NOT_READY", res.Error.Code)

	w, _ = e.do(http.MethodHead, "/api/heartbeat", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
