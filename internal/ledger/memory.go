package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// Memory keeps entries for the life of the process.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]map[string]airdropcore.LedgerEntry
}

func NewMemory() *Memory {
	return &Memory{runs: map[string]map[string]airdropcore.LedgerEntry{}}
}

func (m *Memory) Lookup(_ context.Context, runID string, keys []string) (map[string]airdropcore.LedgerEntry, error) {
	defer observe(backendMemory, "lookup", nil)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]airdropcore.LedgerEntry, len(keys))
	run := m.runs[runID]
	for _, k := range keys {
		if e, ok := run[k]; ok {
			out[k] = e
		}
	}
	return out, nil
}

func (m *Memory) Record(_ context.Context, entries ...airdropcore.LedgerEntry) error {
	for _, e := range entries {
		if err := validEntry(e); err != nil {
			observe(backendMemory, "record", err)
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		run, ok := m.runs[e.RunID]
		if !ok {
			run = map[string]airdropcore.LedgerEntry{}
			m.runs[e.RunID] = run
		}
		run[e.Key] = e
	}
	observe(backendMemory, "record", nil)
	return nil
}

func (m *Memory) Entries(_ context.Context, runID string) ([]airdropcore.LedgerEntry, error) {
	defer observe(backendMemory, "entries", nil)
	m.mu.RLock()
	defer m.mu.RUnlock()
	run := m.runs[runID]
	out := make([]airdropcore.LedgerEntry, 0, len(run))
	for _, e := range run {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Runs(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.runs))
	for id := range m.runs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }
