// Package config provides environment-based configuration for the
// Verigate authentication service.
//
// Configuration is loaded from environment variables using Viper, with
// sensible defaults for development.
//
// # Environment Variables
//
//   - PORT: HTTP server port. Default: 8080
//   - DB_TYPE: Database type (sqlite, postgres, mysql). Default: sqlite
//   - DSN: Database connection string. Default: verigate.db
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - JWT_SECRET: Session token signing secret. Required.
//   - FRONTEND_URL: Base URL the OAuth callback redirects to.
//   - REVOCATION_STORE: Blacklist backend (database, redis). Default: database
//   - REDIS_ADDR: Redis address when REVOCATION_STORE=redis.
//
// # OAuth Provider Configuration
//
// Providers are configured via the OAUTH_PROVIDERS map:
//
//	OAUTH_PROVIDERS_GOOGLE_CLIENT_ID=your-client-id
//	OAUTH_PROVIDERS_GOOGLE_CLIENT_SECRET=your-secret
//	OAUTH_PROVIDERS_GOOGLE_REDIRECT_URL=https://.../auth/google/callback
//
// and likewise for GITHUB. SMTP credentials for outbound mail use the
// SMTP_* keys.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            int    `mapstructure:"PORT"`
	DBType          string `mapstructure:"DB_TYPE"`
	DSN             string `mapstructure:"DSN"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	FrontendURL     string `mapstructure:"FRONTEND_URL"`
	RevocationStore string `mapstructure:"REVOCATION_STORE"`
	RedisAddr       string `mapstructure:"REDIS_ADDR"`

	SMTP           SMTP                     `mapstructure:"SMTP"`
	OAuthProviders map[string]OAuthProvider `mapstructure:"OAUTH_PROVIDERS"`
}

type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type OAuthProvider struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// configKeys is every flat key Unmarshal reads. AutomaticEnv alone does
// not surface env-only keys to Unmarshal, so each one is bound
// explicitly; the replacer maps e.g. SMTP.host to SMTP_HOST.
var configKeys = []string{
	"PORT", "DB_TYPE", "DSN", "LOG_LEVEL", "JWT_SECRET", "FRONTEND_URL",
	"REVOCATION_STORE", "REDIS_ADDR",
	"SMTP.host", "SMTP.port", "SMTP.username", "SMTP.password", "SMTP.from",
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "verigate.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("REVOCATION_STORE", "database")
	viper.SetDefault("SMTP.port", 587)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for _, key := range configKeys {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.OAuthProviders = loadOAuthProviders()

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}

	return &cfg, nil
}

// loadOAuthProviders reads the per-provider keys directly: nested maps
// cannot be populated from env through Unmarshal. A provider is
// configured when its client id is set.
func loadOAuthProviders() map[string]OAuthProvider {
	providers := make(map[string]OAuthProvider)
	for _, name := range []string{"google", "github"} {
		prefix := "OAUTH_PROVIDERS." + name + "."
		p := OAuthProvider{
			ClientID:     viper.GetString(prefix + "CLIENT_ID"),
			ClientSecret: viper.GetString(prefix + "CLIENT_SECRET"),
			RedirectURL:  viper.GetString(prefix + "REDIRECT_URL"),
		}
		if p.ClientID != "" {
			providers[name] = p
		}
	}
	return providers
}
