package database

import (
	"strings"
	"testing"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migration files embedded")
	}

	// up/downのペアが揃っていること
	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file: %s", name)
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("missing down migration for %s", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("missing up migration for %s", base)
		}
	}
}

func TestMigrationsDefineCoreTables(t *testing.T) {
	tables := map[string]string{
		"users":        "migrations/000001_create_users.up.sql",
		"events":       "migrations/000002_create_events.up.sql",
		"participants": "migrations/000002_create_events.up.sql",
		"feedback":     "migrations/000002_create_events.up.sql",
	}

	for table, file := range tables {
		data, err := migrationsFS.ReadFile(file)
		if err != nil {
			t.Fatalf("failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), "CREATE TABLE "+table) {
			t.Errorf("%s should create table %s", file, table)
		}
	}
}

func TestNewMigrator_InvalidURL(t *testing.T) {
	if _, err := NewMigrator("not-a-database-url"); err == nil {
		t.Error("expected error for invalid database URL")
	}
}
