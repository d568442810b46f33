package fusion

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// Store is the persistence surface the orchestrator needs. Put must apply the
// current fields and the history append as one atomic operation in the
// backing store, never as a read-modify-write in the caller.
type Store interface {
	// Get returns the entity's current record, or nil when none exists yet.
	Get(ctx context.Context, entityID string) (*SummaryRecord, error)

	// Put upserts the record by entity id. When prior is non-nil it is
	// appended to the stored history in the same operation that overwrites
	// the current fields.
	Put(ctx context.Context, record SummaryRecord, prior *Snapshot) error
}

// SourceLookup resolves an entity's fragment sources, ordered oldest first.
type SourceLookup func(ctx context.Context, entityID string) ([]FragmentSource, error)

// SourceStatus reports one fusion attempt inside a pass.
type SourceStatus struct {
	SourceCreatedAt time.Time
	Outcome         Outcome
	Err             error
}

// EntityStatus reports everything that happened to one entity during a pass,
// enough for an operator to re-run just the failed subset.
type EntityStatus struct {
	EntityID string
	Sources  []SourceStatus
	Err      error
}

// Failed reports whether any source fusion or store write failed for this entity.
func (s EntityStatus) Failed() bool {
	if s.Err != nil {
		return true
	}
	for _, src := range s.Sources {
		if src.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Options configures one orchestrator run.
type Options struct {
	// Shuffle randomizes entity order before the first pass.
	Shuffle bool

	// Repeat runs the pass again this many extra times, reversing entity
	// order between passes. The fold is a left-to-right reduction and the
	// generator is not order-invariant, so varied-order re-passes nudge
	// summaries toward a less order-dependent fixed point. Best effort only;
	// not a correctness guarantee.
	Repeat int

	// Skip lists entity ids excluded from the pass.
	Skip map[string]bool
}

// Orchestrator drives the engine across a set of entities, persisting after
// every fused source so a crash loses at most the one in-flight fusion.
type Orchestrator struct {
	Engine *Engine
	Store  Store

	mu     sync.Mutex
	leases map[string]*sync.Mutex
}

// NewOrchestrator wires an engine to a store.
func NewOrchestrator(engine *Engine, store Store) *Orchestrator {
	return &Orchestrator{
		Engine: engine,
		Store:  store,
		leases: make(map[string]*sync.Mutex),
	}
}

// lease returns the mutex owning an entity. Concurrent passes over the same
// orchestrator serialize per entity so no record loses an update to a race.
func (o *Orchestrator) lease(entityID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.leases == nil {
		o.leases = make(map[string]*sync.Mutex)
	}
	m, ok := o.leases[entityID]
	if !ok {
		m = &sync.Mutex{}
		o.leases[entityID] = m
	}
	return m
}

// RunPass fuses every entity's pending sources under the given policy. A
// failure inside one entity stops that entity's source sequence (skipping a
// source would make later fusions mask it forever) but never stops the pass;
// other entities still run. Statuses come back in processing order.
func (o *Orchestrator) RunPass(ctx context.Context, entities []string, lookup SourceLookup, policy FusionPolicy, opts Options) []EntityStatus {
	order := append([]string(nil), entities...)
	if opts.Shuffle {
		rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	var statuses []EntityStatus
	passes := 1 + opts.Repeat
	for pass := 0; pass < passes; pass++ {
		if pass > 0 {
			// Flip the order between passes to vary the fold direction.
			for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
				order[i], order[j] = order[j], order[i]
			}
			log.Printf("[Orchestrator] %s: re-pass %d/%d with reversed entity order", policy.Name, pass, opts.Repeat)
		}
		for _, entityID := range order {
			if opts.Skip[entityID] {
				continue
			}
			statuses = append(statuses, o.runEntity(ctx, entityID, lookup, policy))
		}
	}
	return statuses
}

func (o *Orchestrator) runEntity(ctx context.Context, entityID string, lookup SourceLookup, policy FusionPolicy) EntityStatus {
	lease := o.lease(entityID)
	lease.Lock()
	defer lease.Unlock()

	status := EntityStatus{EntityID: entityID}

	sources, err := lookup(ctx, entityID)
	if err != nil {
		status.Err = fmt.Errorf("lookup sources for %s: %w", entityID, err)
		return status
	}

	record, err := o.loadRecord(ctx, entityID)
	if err != nil {
		status.Err = err
		return status
	}

	for _, source := range sources {
		updated, outcome, err := o.Engine.Fuse(ctx, record, source, policy)
		status.Sources = append(status.Sources, SourceStatus{
			SourceCreatedAt: source.CreatedAt,
			Outcome:         outcome,
			Err:             err,
		})

		switch outcome {
		case OutcomeNoOp:
			log.Printf("[Orchestrator] %s (%s): source at %s already incorporated, skipping",
				entityID, policy.Name, source.CreatedAt.Format(time.RFC3339))
			continue
		case OutcomeFailed:
			// Stop this entity's sequence: applying a later source now would
			// advance the record timestamp past the failed source and the
			// staleness check would reject it on every retry.
			log.Printf("[Orchestrator] %s (%s): fusion failed, leaving entity for retry: %v",
				entityID, policy.Name, err)
			return status
		}

		prior := priorSnapshot(record)
		if err := o.Store.Put(ctx, updated, prior); err != nil {
			status.Err = fmt.Errorf("persist %s: %w", entityID, err)
			log.Printf("[Orchestrator] %s (%s): store write failed, halting entity: %v",
				entityID, policy.Name, err)
			return status
		}
		record = updated
	}
	return status
}

func (o *Orchestrator) loadRecord(ctx context.Context, entityID string) (SummaryRecord, error) {
	existing, err := o.Store.Get(ctx, entityID)
	if err != nil {
		return SummaryRecord{}, fmt.Errorf("load record for %s: %w", entityID, err)
	}
	if existing == nil {
		return NewRecord(entityID), nil
	}
	return existing.Clone(), nil
}

func priorSnapshot(record SummaryRecord) *Snapshot {
	if record.IsSentinel() {
		return nil
	}
	snap := record.Snapshot()
	return &snap
}
