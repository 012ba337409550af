package migrate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db"
	"github.com/angelmondragon/packfinderz-settlement/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSettlementMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_settlement_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS buyer_orders",
		"CREATE TABLE IF NOT EXISTS settlements",
		"CREATE TABLE IF NOT EXISTS settlement_payouts",
		"CREATE TABLE IF NOT EXISTS ledger_entries",
		"CREATE TABLE IF NOT EXISTS buyer_loyalty",
		"CREATE TABLE IF NOT EXISTS seller_balances",
		"CHECK (NOT (discount_applied AND discount_used))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_entries_reversal_of",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationDeclaresDedupIndex(t *testing.T) {
	content := readMigration(t, "*_create_outbox_tables.sql")
	if !strings.Contains(content, "ux_outbox_events_event_aggregate") {
		t.Fatalf("outbox migration must declare the dedup index")
	}
}

func TestMaintenanceIndexesHaveRollback(t *testing.T) {
	content := readMigration(t, "*_add_maintenance_indexes.sql")
	for _, idx := range []string{"idx_outbox_events_published_at", "idx_outbox_dlq_failed_at", "idx_ledger_entries_seller"} {
		if strings.Count(content, idx) != 2 {
			t.Errorf("index %s should be created and dropped", idx)
		}
	}
}

func TestAutoMigrateSQLite(t *testing.T) {
	conn, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.AutoMigrate(conn); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	for _, table := range []string{"sellers", "products", "buyer_orders", "settlements", "settlement_payouts", "ledger_entries", "buyer_loyalty", "seller_balances", "outbox_events", "outbox_dlq"} {
		if !conn.Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Refund Index!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_refund_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "add refund index"); err == nil {
		t.Fatalf("expected duplicate name to be rejected")
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatalf("expected empty slug to be rejected")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
