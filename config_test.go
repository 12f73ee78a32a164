package authcore_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	authcore "github.com/chimerakang/authcore-go"
)

func TestConfig_Validate(t *testing.T) {
	cfg := &authcore.Config{Secret: "s"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if cfg.SessionTTL != authcore.DefaultSessionTTL {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, authcore.DefaultSessionTTL)
	}
	if cfg.GrantTTL != authcore.DefaultGrantTTL {
		t.Errorf("GrantTTL = %v, want %v", cfg.GrantTTL, authcore.DefaultGrantTTL)
	}
}

func TestConfig_MissingSecret(t *testing.T) {
	err := (&authcore.Config{}).Validate()
	if err == nil {
		t.Fatal("Validate() with empty secret succeeded, want error")
	}
	var cfgErr *authcore.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error = %v, want *ConfigError", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_JWT_SECRET", "env-secret")
	t.Setenv("SERVER_WX_APPID", "env-appid")
	t.Setenv("SERVER_WX_SECRET", "env-wx-secret")

	cfg, err := authcore.ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() unexpected error: %v", err)
	}
	if cfg.Secret != "env-secret" {
		t.Errorf("Secret = %q, want %q", cfg.Secret, "env-secret")
	}
	if cfg.WeChat.AppID != "env-appid" {
		t.Errorf("WeChat.AppID = %q, want %q", cfg.WeChat.AppID, "env-appid")
	}
}

func TestConfigFromEnv_MissingSecret(t *testing.T) {
	t.Setenv("SERVER_JWT_SECRET", "")

	if _, err := authcore.ConfigFromEnv(); err == nil {
		t.Fatal("ConfigFromEnv() without SERVER_JWT_SECRET succeeded, want error")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	data := []byte(`secret: file-secret
session_ttl: 1h
grant_ttl: 90s
wechat:
  appid: file-appid
  secret: file-wx-secret
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := authcore.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.Secret != "file-secret" {
		t.Errorf("Secret = %q, want %q", cfg.Secret, "file-secret")
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL)
	}
	if cfg.GrantTTL != 90*time.Second {
		t.Errorf("GrantTTL = %v, want 90s", cfg.GrantTTL)
	}
	if cfg.WeChat.AppID != "file-appid" {
		t.Errorf("WeChat.AppID = %q, want %q", cfg.WeChat.AppID, "file-appid")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := authcore.LoadConfig("/nonexistent/auth.yaml"); err == nil {
		t.Fatal("LoadConfig() of missing file succeeded, want error")
	}
}
