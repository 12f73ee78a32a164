package authcore

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Default token lifetimes. Session tokens live 10 hours; apply codes live
// 3 minutes.
const (
	DefaultSessionTTL = 36000 * time.Second
	DefaultGrantTTL   = 180 * time.Second
)

// Config holds process-wide auth configuration. It is constructed once at
// startup and passed by reference into the services; the signing secret is
// immutable for the process lifetime. Tests inject distinct Configs instead
// of mutating the environment.
type Config struct {
	// Secret is the shared HMAC signing secret for session tokens and apply
	// codes. Required; an empty secret is a fatal configuration error.
	Secret string `yaml:"secret"`

	// SessionTTL is the session token lifetime. Default: 10 hours.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// GrantTTL is the apply-code lifetime. Default: 3 minutes.
	GrantTTL time.Duration `yaml:"grant_ttl"`

	// WeChat configures the external identity exchange.
	WeChat WeChatConfig `yaml:"wechat"`
}

// WeChatConfig holds the jscode2session endpoint configuration.
type WeChatConfig struct {
	AppID   string `yaml:"appid"`
	Secret  string `yaml:"secret"`
	BaseURL string `yaml:"base_url"`
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return &ConfigError{Field: "secret", Reason: "signing secret is required"}
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.GrantTTL <= 0 {
		c.GrantTTL = DefaultGrantTTL
	}
	return nil
}

// ConfigFromEnv builds a Config from the process environment.
// SERVER_JWT_SECRET is required; SERVER_WX_APPID and SERVER_WX_SECRET
// configure the identity exchange; SERVER_WX_BASEURL overrides the WeChat
// endpoint.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Secret: os.Getenv("SERVER_JWT_SECRET"),
		WeChat: WeChatConfig{
			AppID:   os.Getenv("SERVER_WX_APPID"),
			Secret:  os.Getenv("SERVER_WX_SECRET"),
			BaseURL: os.Getenv("SERVER_WX_BASEURL"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "file", Reason: err.Error()}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Field: "file", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
