package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/ethdb/leveldb"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// Entries live under ledger/<run id>\x00<recipient key> as JSON.
var levelPrefix = []byte("ledger/")

const (
	levelCacheMB = 16
	levelHandles = 16
)

// LevelDB is a single-process file ledger.
type LevelDB struct {
	db *leveldb.Database
}

func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.New(dir, levelCacheMB, levelHandles, "airdrop/ledger/", false)
	if err != nil {
		return nil, fmt.Errorf("open leveldb ledger %s: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

func runPrefix(runID string) []byte {
	k := append([]byte{}, levelPrefix...)
	k = append(k, runID...)
	return append(k, 0)
}

func entryKey(runID, key string) []byte {
	return append(runPrefix(runID), key...)
}

func (l *LevelDB) Lookup(_ context.Context, runID string, keys []string) (out map[string]airdropcore.LedgerEntry, err error) {
	defer func() { observe(backendLevelDB, "lookup", err) }()
	out = make(map[string]airdropcore.LedgerEntry, len(keys))
	for _, k := range keys {
		dbKey := entryKey(runID, k)
		ok, err := l.db.Has(dbKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		raw, err := l.db.Get(dbKey)
		if err != nil {
			return nil, err
		}
		var e airdropcore.LedgerEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode ledger entry %s/%s: %w", runID, k, err)
		}
		out[k] = e
	}
	return out, nil
}

// Record writes all entries in one batch.
func (l *LevelDB) Record(_ context.Context, entries ...airdropcore.LedgerEntry) (err error) {
	defer func() { observe(backendLevelDB, "record", err) }()
	batch := l.db.NewBatch()
	for _, e := range entries {
		if err := validEntry(e); err != nil {
			return err
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := batch.Put(entryKey(e.RunID, e.Key), raw); err != nil {
			return err
		}
	}
	return batch.Write()
}

func (l *LevelDB) Entries(_ context.Context, runID string) (out []airdropcore.LedgerEntry, err error) {
	defer func() { observe(backendLevelDB, "entries", err) }()
	it := l.db.NewIterator(runPrefix(runID), nil)
	defer it.Release()
	out = []airdropcore.LedgerEntry{}
	for it.Next() {
		var e airdropcore.LedgerEntry
		if err := json.Unmarshal(it.Value(), &e); err != nil {
			return nil, fmt.Errorf("decode ledger entry %q: %w", it.Key(), err)
		}
		out = append(out, e)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (l *LevelDB) Runs(context.Context) ([]string, error) {
	it := l.db.NewIterator(levelPrefix, nil)
	defer it.Release()
	seen := map[string]struct{}{}
	for it.Next() {
		rest := it.Key()[len(levelPrefix):]
		if i := bytes.IndexByte(rest, 0); i >= 0 {
			seen[string(rest[:i])] = struct{}{}
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (l *LevelDB) Close() error { return l.db.Close() }
