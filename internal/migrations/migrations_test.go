package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsEmbedded(t *testing.T) {
	data, err := Files.ReadFile("001_init.sql")
	if err != nil {
		t.Fatalf("expected embedded migration, got error: %v", err)
	}
	if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS interactions") {
		t.Fatalf("expected initial migration to create the interactions table")
	}
}

func TestMigrationsStartWithComment(t *testing.T) {
	names, err := fs.Glob(Files, "*.sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("no migrations embedded")
	}
	for _, name := range names {
		data, err := Files.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.HasPrefix(string(data), "-- ") {
			t.Errorf("%s: expected a leading comment describing the migration", name)
		}
	}
}
