package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)

	require.NoError(t, Load(""))

	assert.Equal(t, 8080, viper.GetInt("host.port"))
	assert.Equal(t, "recipes", viper.GetString("mongo.database"))
	assert.Equal(t, int64(5<<20), viper.GetInt64("upload.max_size"))

	verify := ChallengeOptions("verify")
	assert.True(t, verify.TokenEnabled)
	assert.True(t, verify.OTPEnabled)
	assert.Equal(t, time.Hour, verify.TokenTTL)
	assert.Equal(t, 15*time.Minute, verify.CodeTTL)
	assert.Equal(t, 5, verify.MaxAttempts)

	reset := ChallengeOptions("reset")
	assert.Equal(t, 30*time.Minute, reset.TokenTTL)
	assert.Equal(t, 10*time.Minute, reset.CodeTTL)
	assert.Equal(t, time.Minute, reset.ResendCooldown)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("VERIFY_OTP_ENABLED", "false")
	t.Setenv("RESET_CODE_TTL", "5m")
	t.Setenv("HOST_CORS", "https://a.example, https://b.example")

	require.NoError(t, Load(""))

	assert.False(t, ChallengeOptions("verify").OTPEnabled)
	assert.Equal(t, 5*time.Minute, ChallengeOptions("reset").CodeTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, Origins())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := `
[app]
env = "production"

[jwt]
secret = "` + testSecret + `"

[verify]
max_attempts = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0o600))

	require.NoError(t, Load(""))
	assert.True(t, IsProduction())
	assert.Equal(t, 3, ChallengeOptions("verify").MaxAttempts)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	cases := map[string]map[string]string{
		"missing secret":  {},
		"short secret":    {"JWT_SECRET": "short"},
		"bad log level":   {"JWT_SECRET": testSecret, "APP_LOG_LEVEL": "verbose"},
		"bad code length": {"JWT_SECRET": testSecret, "VERIFY_CODE_LENGTH": "2"},
		"modes off":       {"JWT_SECRET": testSecret, "RESET_TOKEN_ENABLED": "false", "RESET_OTP_ENABLED": "false"},
		"bucket no keys":  {"JWT_SECRET": testSecret, "AWS_BUCKET": "images", "AWS_ACCESS_KEY_ID": ""},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, val := range env {
				t.Setenv(k, val)
			}

			assert.Error(t, Load(""))
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.toml")))
}
