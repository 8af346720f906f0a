package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m3rciful/catalogbot/bot/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
logging:
  level: debug
bot:
  owner_username: "@boss"
storage:
  driver: bolt
  dir: /var/lib/catalogbot
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if got := cfg.PrimaryOwner(); got != "boss" {
		t.Fatalf("primary owner = %q, want boss", got)
	}
	if cfg.Storage.Driver != storage.DriverBolt {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if want := filepath.Join("/var/lib/catalogbot", "catalog.db"); cfg.Storage.BoltPath != want {
		t.Fatalf("bolt path = %q, want %q", cfg.Storage.BoltPath, want)
	}
	if cfg.CoreConfig().Logging.Level != "debug" {
		t.Fatal("core config not shared")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "file"
bot:
  owner_username: fileowner
`)
	t.Setenv("BOT_TOKEN", "env")
	t.Setenv("OWNER_USERNAME", "@@envowner ")
	t.Setenv("STORAGE_DIR", "/data")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Bot.OwnerUsername != "envowner" {
		t.Fatalf("owner = %q", cfg.Bot.OwnerUsername)
	}
	if cfg.Storage.Driver != storage.DriverJSON || cfg.Storage.Dir != "/data" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing owner", "telegram:\n  token: t\n"},
		{"unknown driver", "telegram:\n  token: t\nbot:\n  owner_username: o\nstorage:\n  driver: redis\n"},
		{"postgres without database", "telegram:\n  token: t\nbot:\n  owner_username: o\nstorage:\n  driver: postgres\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
