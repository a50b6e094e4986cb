// Package ledger persists per-recipient settlement state so a retried run
// only touches recipients that were never paid.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/metrics"
)

const (
	backendMemory   = "memory"
	backendLevelDB  = "leveldb"
	backendPostgres = "postgres"
)

// Store is a Ledger that can also list runs and must be closed.
type Store interface {
	airdropcore.Ledger
	Runs(ctx context.Context) ([]string, error)
	Close() error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*LevelDB)(nil)
	_ Store = (*Postgres)(nil)
)

// Open picks a backend from dsn:
//
//	memory (or empty)           in-process only
//	leveldb:<dir>               local LevelDB directory
//	postgres://... / postgresql://...
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || dsn == backendMemory:
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "leveldb:"):
		dir := strings.TrimPrefix(dsn, "leveldb:")
		if dir == "" {
			return nil, errors.New("leveldb ledger needs a directory, e.g. leveldb:./ledger")
		}
		return OpenLevelDB(dir)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown ledger %q (want memory, leveldb:<dir> or postgres://...)", dsn)
}

func validEntry(e airdropcore.LedgerEntry) error {
	if e.RunID == "" || e.Key == "" {
		return fmt.Errorf("ledger entry needs run id and key (run=%q key=%q)", e.RunID, e.Key)
	}
	if strings.ContainsRune(e.RunID, 0) {
		return fmt.Errorf("run id %q contains NUL", e.RunID)
	}
	return nil
}

func observe(backend, op string, err error) {
	metrics.LedgerOperations.WithLabelValues(backend, op, metrics.Status(err)).Inc()
}
