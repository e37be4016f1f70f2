package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/auroralife/aurora-backend/pkg/migrate"
)

func TestAutoshipMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_autoship_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no autoship migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS autoships",
		"CREATE TABLE IF NOT EXISTS autoship_items",
		"CREATE TABLE IF NOT EXISTS autoship_adjustments",
		"CREATE TABLE IF NOT EXISTS autoship_payments",
		"CREATE TABLE IF NOT EXISTS autoship_runs",
		"CHECK (active_date BETWEEN 1 AND 28)",
		"CHECK (frequency_by_month >= 1)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_autoship_payments_one_active",
		"FOREIGN KEY (autoship_id) REFERENCES autoships(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS autoship_runs",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirectoryValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations should validate: %v", err)
	}
}
