package testsupport

import (
	"testing"

	"dubber/internal/config"
	"dubber/internal/journal"
	"dubber/internal/ledger"
)

// MustOpenLedger opens the ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJournal builds a journal rooted in the test config's state directory.
func NewJournal(t testing.TB, cfg *config.Config) *journal.Journal {
	t.Helper()
	return journal.New(cfg.JournalPath())
}
