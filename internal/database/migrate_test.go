package database

import (
	"io/fs"
	"strings"
	"testing"
)

// TestMigrationsEmbedded はマイグレーションSQLが埋め込まれていることを検証する。
func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("no embedded migration files found")
	}

	ups := 0
	downs := 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected migration file name: %s", e.Name())
		}
	}

	if ups != downs {
		t.Errorf("up/down migration count mismatch: %d up, %d down", ups, downs)
	}
	if ups < 2 {
		t.Errorf("expected at least 2 up migrations (accounts, sweets), got %d", ups)
	}
}

// TestMigrationsContainSchema は主要テーブルの定義が含まれることを検証する。
func TestMigrationsContainSchema(t *testing.T) {
	accounts, err := fs.ReadFile(migrationsFS, "migrations/000001_create_accounts.up.sql")
	if err != nil {
		t.Fatalf("failed to read accounts migration: %v", err)
	}
	if !strings.Contains(string(accounts), "CHECK (role IN ('admin', 'user'))") {
		t.Error("accounts migration is missing the role check constraint")
	}

	sweets, err := fs.ReadFile(migrationsFS, "migrations/000002_create_sweets.up.sql")
	if err != nil {
		t.Fatalf("failed to read sweets migration: %v", err)
	}
	if !strings.Contains(string(sweets), "CHECK (quantity >= 0)") {
		t.Error("sweets migration is missing the non-negative quantity constraint")
	}
}
