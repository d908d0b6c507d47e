package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
auth:
  jwt_secret: "test_secret"
database:
  path: "test.db"
http:
  port: 9001
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Auth.JWTSecret != "test_secret" {
		t.Errorf("expected jwt_secret test_secret, got %s", cfg.Auth.JWTSecret)
	}
	if cfg.HTTP.Port != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.HTTP.Port)
	}
	// Defaults fill the omitted sections.
	if cfg.RateLimit.RPS != 10 {
		t.Errorf("expected default rps 10, got %f", cfg.RateLimit.RPS)
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
database:
  path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv("TEST_JWT_SECRET", "expanded_secret")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret != "expanded_secret" {
		t.Errorf("expected expanded secret, got %s", cfg.Auth.JWTSecret)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Auth:     AuthConfig{JWTSecret: "secret"},
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: false,
		},
		{
			name: "missing jwt secret",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "placeholder jwt secret",
			cfg: Config{
				Auth:     AuthConfig{JWTSecret: "CHANGE_ME"},
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "missing database path",
			cfg: Config{
				Auth: AuthConfig{JWTSecret: "secret"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.App.Name != "buildconnect" {
		t.Errorf("expected default app name buildconnect, got %s", cfg.App.Name)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Auth.TokenTTLHours != 24*7 {
		t.Errorf("expected default token ttl 168h, got %d", cfg.Auth.TokenTTLHours)
	}
	if cfg.Database.QueryTimeoutSec != 5 {
		t.Errorf("expected default query timeout 5s, got %d", cfg.Database.QueryTimeoutSec)
	}
	if cfg.RateLimit.Burst != 20 {
		t.Errorf("expected default burst 20, got %d", cfg.RateLimit.Burst)
	}
	if cfg.Reports.Path != "exports" {
		t.Errorf("expected default reports path exports, got %s", cfg.Reports.Path)
	}
}
