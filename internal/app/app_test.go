package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tigearis/payroll-billing/internal/config"
	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/security"
)

// writeTestConfig drops a minimal config file pointing at a throwaway
// sqlite database and returns the AppConfig for it.
func writeTestConfig(t *testing.T) config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dsn := filepath.Join(dir, "billing.db")
	body := "database:\n  dsn: " + dsn + "\njwt:\n  secret: test-secret\n"
	if errWrite := os.WriteFile(configPath, []byte(body), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return config.AppConfig{ConfigPath: configPath}
}

func TestMigrateSeedsDatabaseFromConfig(t *testing.T) {
	cfg := writeTestConfig(t)

	if errMigrate := Migrate(context.Background(), cfg); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	conn, _, errOpen := openDatabase(cfg)
	if errOpen != nil {
		t.Fatalf("reopen database: %v", errOpen)
	}
	for _, table := range []string{"admins", "settings", "services", "clients", "pricing_rules", "quote_logs"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	var rules int64
	if errCount := conn.Model(&models.PricingRule{}).Count(&rules).Error; errCount != nil {
		t.Fatalf("count rules: %v", errCount)
	}
	if rules == 0 {
		t.Fatalf("expected seeded pricing rules")
	}
}

func TestCreateAdminCreatesAndResetsPassword(t *testing.T) {
	cfg := writeTestConfig(t)
	ctx := context.Background()

	if errCreate := CreateAdmin(ctx, cfg, CreateAdminParams{Username: "root", Password: "first-password", SuperAdmin: true}); errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}

	conn, _, errOpen := openDatabase(cfg)
	if errOpen != nil {
		t.Fatalf("reopen database: %v", errOpen)
	}
	var admin models.Admin
	if errFind := conn.Where("username = ?", "root").First(&admin).Error; errFind != nil {
		t.Fatalf("find admin: %v", errFind)
	}
	if !admin.IsSuperAdmin || !admin.Active {
		t.Fatalf("expected active super admin, got %+v", admin)
	}
	if !security.CheckPassword(admin.Password, "first-password") {
		t.Fatalf("stored hash does not match initial password")
	}

	// A second run with the same username resets the password in place.
	if errReset := CreateAdmin(ctx, cfg, CreateAdminParams{Username: "root", Password: "second-password"}); errReset != nil {
		t.Fatalf("reset admin: %v", errReset)
	}
	if errFind := conn.Where("username = ?", "root").First(&admin).Error; errFind != nil {
		t.Fatalf("find admin after reset: %v", errFind)
	}
	if !security.CheckPassword(admin.Password, "second-password") {
		t.Fatalf("password reset not persisted")
	}

	if errShort := CreateAdmin(ctx, cfg, CreateAdminParams{Username: "root", Password: "short"}); errShort == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestCreateAdminRequiresUsername(t *testing.T) {
	cfg := writeTestConfig(t)
	if err := CreateAdmin(context.Background(), cfg, CreateAdminParams{Username: "  ", Password: "long-enough"}); err == nil {
		t.Fatalf("expected error for blank username")
	}
}
