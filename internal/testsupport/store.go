package testsupport

import (
	"testing"

	"murmur/internal/config"
	"murmur/internal/history"
	"murmur/internal/ledger"
	"murmur/internal/logging"
)

// MustOpenHistory opens the history store for cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// OpenLedger opens the ledger for cfg with a silent logger.
func OpenLedger(t testing.TB, cfg *config.Config) *ledger.Ledger {
	t.Helper()
	return ledger.Open(cfg.LedgerPath(), ledger.Options{
		AdoptLegacyTranscripts: cfg.Ledger.AdoptLegacyTranscripts,
	}, logging.NewNop())
}
