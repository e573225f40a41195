package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FileDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, `
app:
  http:
    port: 9090
auth:
  password: secret
  sessionsecret: 0123456789abcdef
db:
  driver: mysql
`)
	t.Setenv("APP_DB_DSN", "root:pw@tcp(localhost:3306)/admin")
	t.Setenv("APP_EXPORT_BUCKET", "backups")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.HTTP.Port != 9090 || c.App.HTTP.Host != "0.0.0.0" {
		t.Errorf("http = %+v", c.App.HTTP)
	}
	if c.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr = %q", c.Addr())
	}
	if c.DB.Driver != "mysql" || c.DB.DSN != "root:pw@tcp(localhost:3306)/admin" {
		t.Errorf("db = %+v", c.DB)
	}
	if c.Upload.MaxBytes != 5<<20 {
		t.Errorf("upload.maxbytes = %d", c.Upload.MaxBytes)
	}
	if c.Auth.SessionTTL() != 8*time.Hour || c.Auth.CookieName != "admin_session" {
		t.Errorf("auth = %+v", c.Auth)
	}
	if !c.Export.Enabled() || c.Export.Prefix != "exports" {
		t.Errorf("export = %+v", c.Export)
	}
	if c.Events.Enabled() || c.Redis.Enabled() {
		t.Error("events and redis should be off without an address")
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("APP_AUTH_PASSWORD", "pw")
	t.Setenv("APP_AUTH_SESSIONSECRET", "a-long-enough-secret")

	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Auth.Password != "pw" || c.Auth.Username != "admin" {
		t.Errorf("auth = %+v", c.Auth)
	}
}

func TestLoad_Validation(t *testing.T) {
	if _, err := Load(writeConfig(t, "upload:\n  maxbytes: 0\n")); err == nil {
		t.Error("expected upload.maxbytes to be rejected")
	}
}

func TestValidateAuth(t *testing.T) {
	tests := []struct {
		name string
		auth Auth
		ok   bool
	}{
		{"plain password", Auth{Password: "x", SessionSecret: "0123456789abcdef"}, true},
		{"hash only", Auth{PasswordHash: "$2a$10$abc", SessionSecret: "0123456789abcdef"}, true},
		{"no credential", Auth{SessionSecret: "0123456789abcdef"}, false},
		{"short secret", Auth{Password: "x", SessionSecret: "short"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Auth: tt.auth}
			if err := c.ValidateAuth(); (err == nil) != tt.ok {
				t.Errorf("ValidateAuth = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
