package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

// MemoryStore keeps records in a process-local map. It backs tests and dry
// runs where a database is overkill.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]fusion.SummaryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]fusion.SummaryRecord)}
}

func (ms *MemoryStore) Get(_ context.Context, entityID string) (*fusion.SummaryRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	rec, ok := ms.records[entityID]
	if !ok {
		return nil, nil
	}
	out := rec.Clone()
	return &out, nil
}

func (ms *MemoryStore) Put(_ context.Context, record fusion.SummaryRecord, prior *fusion.Snapshot) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	stored := ms.records[record.EntityID]
	stored.EntityID = record.EntityID
	stored.SummaryText = record.SummaryText
	stored.ModelID = record.ModelID
	stored.CreatedAt = record.CreatedAt
	stored.SchemaDegraded = record.SchemaDegraded
	if prior != nil {
		stored.History = append(stored.History, *prior)
	}
	ms.records[record.EntityID] = stored
	return nil
}

func (ms *MemoryStore) All(_ context.Context) ([]fusion.SummaryRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]fusion.SummaryRecord, 0, len(ms.records))
	for _, rec := range ms.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

func (ms *MemoryStore) EntityIDs(_ context.Context) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	ids := make([]string, 0, len(ms.records))
	for id := range ms.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (ms *MemoryStore) Export(ctx context.Context, path string) error {
	return exportJSON(ctx, ms, path)
}

func (ms *MemoryStore) Close() error { return nil }
