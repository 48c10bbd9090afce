// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/pkg/util"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath      = pflag.String("config", "", "Path to a config file, defaults to ./config.toml")
	SweepChallenges = pflag.Bool("sweep-challenges", false, "Removes expired verification and reset challenges, then exits")

	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs      = []string{"development", "production", "test"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	return Load(*configPath)
}

// Load reads the optional config file at path, environment overrides and
// defaults, then validates the result
func Load(path string) error {
	v.Reset()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")
	v.BindEnv("app.env", "APP_ENV")

	v.BindEnv("host.port", "HOST_PORT", "PORT")
	v.BindEnv("host.domain", "HOST_DOMAIN")
	v.BindEnv("host.cors", "HOST_CORS")
	v.BindEnv("host.app_base_url", "APP_BASE_URL")
	v.BindEnv("host.ssl_enabled", "HOST_SSL_ENABLED")

	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.database", "MONGO_DATABASE")
	v.BindEnv("mongo.max_pool_size", "MONGO_MAX_POOL_SIZE")
	v.BindEnv("mongo.timeout", "MONGO_TIMEOUT")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.ttl", "JWT_TTL")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")

	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.sender", "MAIL_SENDER_ADDRESS")

	for _, p := range []string{"verify", "reset"} {
		up := strings.ToUpper(p)
		v.BindEnv(p+".token_enabled", up+"_TOKEN_ENABLED")
		v.BindEnv(p+".otp_enabled", up+"_OTP_ENABLED")
		v.BindEnv(p+".token_ttl", up+"_TOKEN_TTL")
		v.BindEnv(p+".code_ttl", up+"_CODE_TTL")
		v.BindEnv(p+".code_length", up+"_CODE_LENGTH")
		v.BindEnv(p+".max_attempts", up+"_MAX_ATTEMPTS")
		v.BindEnv(p+".resend_cooldown", up+"_RESEND_COOLDOWN")
	}

	v.BindEnv("aws.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.bucket", "AWS_BUCKET")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT")
	v.BindEnv("aws.public_url", "AWS_PUBLIC_URL")

	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")
	v.BindEnv("upload.allowed_types", "UPLOAD_ALLOWED_TYPES")

	v.BindEnv("defaults.avatar_url", "DEFAULT_AVATAR_URL")
	v.BindEnv("defaults.recipe_thumbnail", "DEFAULT_RECIPE_THUMBNAIL")
	v.BindEnv("defaults.blog_thumbnail", "DEFAULT_BLOG_THUMBNAIL")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.env", "development")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", "http://localhost:5173")
	v.SetDefault("host.app_base_url", "http://localhost:5173")
	v.SetDefault("host.ssl_enabled", false)

	if util.IsRunningInDocker() {
		v.SetDefault("mongo.uri", "mongodb://mongo:27017")
	} else {
		v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	}
	v.SetDefault("mongo.database", "recipes")
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("jwt.ttl", 7*24*time.Hour)

	v.SetDefault("security.rate_limit", 20)

	v.SetDefault("mail.port", 587)

	v.SetDefault("verify.token_enabled", true)
	v.SetDefault("verify.otp_enabled", true)
	v.SetDefault("verify.token_ttl", 60*time.Minute)
	v.SetDefault("verify.code_ttl", 15*time.Minute)
	v.SetDefault("verify.code_length", 6)
	v.SetDefault("verify.max_attempts", 5)
	v.SetDefault("verify.resend_cooldown", 60*time.Second)

	v.SetDefault("reset.token_enabled", true)
	v.SetDefault("reset.otp_enabled", true)
	v.SetDefault("reset.token_ttl", 30*time.Minute)
	v.SetDefault("reset.code_ttl", 10*time.Minute)
	v.SetDefault("reset.code_length", 6)
	v.SetDefault("reset.max_attempts", 5)
	v.SetDefault("reset.resend_cooldown", 60*time.Second)

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("upload.max_size", 5)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/webp"})

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Debug("No config file found, using environment and defaults")
	}

	if err := validate(); err != nil {
		return err
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validEnvs, v.GetString("app.env")) {
		return errors.New("app.env must be one of development, production or test")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("mongo.uri") == "" {
		return errors.New("mongo.uri can't be empty")
	}

	if v.GetString("mongo.database") == "" {
		return errors.New("mongo.database can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		return fmt.Errorf("no JWT secret set, put one in config.toml or JWT_SECRET. Here's a random one:\n\n%s", genSecret())
	}

	if len(v.GetString("jwt.secret")) < 32 {
		return errors.New("jwt.secret must be at least 32 characters long")
	}

	if v.GetDuration("jwt.ttl") <= 0 {
		return errors.New("jwt.ttl must be bigger than 0")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	for _, p := range []string{"verify", "reset"} {
		if l := v.GetInt(p + ".code_length"); l < 4 || l > 10 {
			return fmt.Errorf("%s.code_length must be between 4 and 10", p)
		}

		if v.GetInt(p+".max_attempts") <= 0 {
			return fmt.Errorf("%s.max_attempts must be bigger than 0", p)
		}

		if v.GetDuration(p+".token_ttl") <= 0 || v.GetDuration(p+".code_ttl") <= 0 {
			return fmt.Errorf("%s expiries must be bigger than 0", p)
		}

		if !v.GetBool(p+".token_enabled") && !v.GetBool(p+".otp_enabled") {
			return fmt.Errorf("%s needs token_enabled or otp_enabled", p)
		}
	}

	if v.GetString("aws.bucket") != "" {
		if v.GetString("aws.access_key_id") == "" {
			return errors.New("aws access key id can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("aws secret access key can't be empty")
		}
	} else {
		zap.L().Warn("No aws.bucket specified, image uploads are disabled")
	}

	if v.GetString("mail.host") == "" {
		zap.L().Warn("No mail.host specified, emails will only be logged")
	} else if v.GetString("mail.sender") == "" {
		return errors.New("mail.sender can't be empty when mail.host is set")
	}

	return nil
}

// ChallengeOptions builds the state machine options for "verify" or "reset"
func ChallengeOptions(prefix string) challenge.Options {
	return challenge.Options{
		TokenEnabled:   v.GetBool(prefix + ".token_enabled"),
		OTPEnabled:     v.GetBool(prefix + ".otp_enabled"),
		TokenTTL:       v.GetDuration(prefix + ".token_ttl"),
		CodeTTL:        v.GetDuration(prefix + ".code_ttl"),
		CodeLength:     v.GetInt(prefix + ".code_length"),
		MaxAttempts:    v.GetInt(prefix + ".max_attempts"),
		ResendCooldown: v.GetDuration(prefix + ".resend_cooldown"),
	}
}

func IsProduction() bool {
	return v.GetString("app.env") == "production"
}

// Origins splits host.cors into the allowed CORS origins
func Origins() []string {
	return util.SplitList([]string{v.GetString("host.cors")})
}
