package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
jwt:
  secret: file-secret
uploads:
  max_file_size: 2048
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.Server.Port)
	}
	if cfg.Uploads.MaxFileSize != 2048 {
		t.Errorf("max file size = %d, want 2048", cfg.Uploads.MaxFileSize)
	}
	if cfg.Storage.Driver != StorageDriverLocal {
		t.Errorf("storage driver = %s, want local", cfg.Storage.Driver)
	}
	if !cfg.Uploads.SniffContent {
		t.Error("sniff content should default to true")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: file-secret\n")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("UPLOADS_MAX_FILE_SIZE", "4096")
	t.Setenv("UPLOADS_SNIFF_CONTENT", "false")
	t.Setenv("STORAGE_DRIVER", "gridfs")
	t.Setenv("STORAGE_MONGO_URI", "mongodb://localhost:27017")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("secret = %s, want env-secret", cfg.JWT.Secret)
	}
	if cfg.Uploads.MaxFileSize != 4096 {
		t.Errorf("max file size = %d, want 4096", cfg.Uploads.MaxFileSize)
	}
	if cfg.Uploads.SniffContent {
		t.Error("sniff content should be disabled by env")
	}
	if cfg.Storage.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("mongo uri = %s", cfg.Storage.Mongo.URI)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing secret", body: "server:\n  port: \"1\"\n", wantErr: "JWT secret is required"},
		{name: "bad duration", body: "jwt:\n  secret: s\n  access_token_expiration: soon\n", wantErr: "JWT access token expiration"},
		{name: "unknown driver", body: "jwt:\n  secret: s\nstorage:\n  driver: s3\n", wantErr: "unknown storage driver"},
		{name: "gridfs without uri", body: "jwt:\n  secret: s\nstorage:\n  driver: gridfs\n", wantErr: "mongo uri is required"},
		{name: "zero max size", body: "jwt:\n  secret: s\nuploads:\n  max_file_size: 0\n", wantErr: "max file size"},
		{name: "bad env int", body: "jwt:\n  secret: s\n", env: map[string]string{"UPLOADS_MAX_FILE_SIZE": "big"}, wantErr: "Uploads.MaxFileSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SCHOLARSHIP_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SCHOLARSHIP_TEST_VALUE") })

	if err := LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	if got := os.Getenv("SCHOLARSHIP_TEST_VALUE"); got != "from-file" {
		t.Errorf("value = %q, want from-file", got)
	}
}

func TestPostgresConnectionStringEscapesPassword(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Database.Password = "p@ss/word"
	got := cfg.GetPostgresConnectionString()
	if !strings.Contains(got, "p%40ss%2Fword") {
		t.Errorf("connection string %q does not escape password", got)
	}
}
