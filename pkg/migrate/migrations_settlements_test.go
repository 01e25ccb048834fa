package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nmoreau/galleria-backend/pkg/migrate"
)

func TestSettlementMigrationEnforcesUniquePayment(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payment_settlements.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payment settlements migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_settlements",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_settlements_payment_id",
		"CHECK (amount_cents > 0)",
		"DROP TABLE IF EXISTS payment_settlements",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOffersMigrationEnforcesSingleAcceptedOffer(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_offers.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no offers migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS offers",
		"idx_offers_one_accepted_per_artwork",
		"WHERE status = 'accepted'",
		"DROP TABLE IF EXISTS offers",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationFilenamesAreValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
