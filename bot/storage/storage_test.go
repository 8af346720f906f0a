package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/database"
)

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Config
		driver  string
		bolt    string
		wantErr bool
	}{
		{name: "default json", in: Config{}, driver: DriverJSON},
		{name: "case folded", in: Config{Driver: " Bolt ", Dir: "/data"}, driver: DriverBolt, bolt: filepath.Join("/data", "catalog.db")},
		{name: "explicit bolt path", in: Config{Driver: "bolt", BoltPath: "/x.db"}, driver: DriverBolt, bolt: "/x.db"},
		{name: "postgres", in: Config{Driver: "postgres"}, driver: DriverPostgres},
		{name: "unknown", in: Config{Driver: "mongo"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			err := cfg.Normalize()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if cfg.Driver != tt.driver {
				t.Fatalf("driver = %q, want %q", cfg.Driver, tt.driver)
			}
			if tt.bolt != "" && cfg.BoltPath != tt.bolt {
				t.Fatalf("bolt path = %q, want %q", cfg.BoltPath, tt.bolt)
			}
			if cfg.MigrationsDir != database.DefaultMigrationsDir {
				t.Fatalf("migrations dir = %q", cfg.MigrationsDir)
			}
		})
	}
}

func TestOpenFileDrivers(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{DriverJSON, DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			b, err := Open(ctx, Config{Driver: driver, Dir: t.TempDir()}, database.Config{})
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer b.Close()

			if b.Driver != driver {
				t.Fatalf("driver = %q", b.Driver)
			}
			if err := b.Roles.SetRole(ctx, "alice", roles.RoleOwner); err != nil {
				t.Fatalf("set role: %v", err)
			}
			if err := b.Resources.PutMany(ctx, []string{"A", "B"}, "L"); err != nil {
				t.Fatalf("put many: %v", err)
			}
			if link, ok, _ := b.Resources.Get(ctx, "B"); !ok || link != "L" {
				t.Fatalf("Get(B) = %q, %v", link, ok)
			}
			if r, _ := b.Roles.Role(ctx, "alice"); r != roles.RoleOwner {
				t.Fatalf("alice = %v", r)
			}
		})
	}
}

func TestOpenPostgresRequiresConfig(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: DriverPostgres}, database.Config{}); err == nil {
		t.Fatal("expected config error")
	}
}
