package fusion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeStore implements Store with backend-style Put semantics: current fields
// are overwritten and the prior snapshot appended in one step.
type fakeStore struct {
	records  map[string]SummaryRecord
	puts     int
	failPuts bool
	failGets bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]SummaryRecord)}
}

func (s *fakeStore) Get(_ context.Context, entityID string) (*SummaryRecord, error) {
	if s.failGets {
		return nil, errors.New("store unavailable")
	}
	rec, ok := s.records[entityID]
	if !ok {
		return nil, nil
	}
	out := rec.Clone()
	return &out, nil
}

func (s *fakeStore) Put(_ context.Context, record SummaryRecord, prior *Snapshot) error {
	if s.failPuts {
		return errors.New("write refused")
	}
	s.puts++
	stored := s.records[record.EntityID]
	stored.EntityID = record.EntityID
	stored.SummaryText = record.SummaryText
	stored.ModelID = record.ModelID
	stored.CreatedAt = record.CreatedAt
	stored.SchemaDegraded = record.SchemaDegraded
	if prior != nil {
		stored.History = append(stored.History, *prior)
	}
	s.records[record.EntityID] = stored
	return nil
}

func sourcesFixture(entityID string, n int) []FragmentSource {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	sources := make([]FragmentSource, 0, n)
	for i := 0; i < n; i++ {
		sources = append(sources, FragmentSource{
			EntityID:  entityID,
			Fragments: []string{fmt.Sprintf("%s fact %d", entityID, i)},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return sources
}

func lookupFixture(perEntity map[string][]FragmentSource) SourceLookup {
	return func(_ context.Context, entityID string) ([]FragmentSource, error) {
		return perEntity[entityID], nil
	}
}

func TestRunPassPersistsAfterEverySource(t *testing.T) {
	store := newFakeStore()
	orch := NewOrchestrator(testEngine(&appendGenerator{}), store)

	statuses := orch.RunPass(context.Background(), []string{"S1"},
		lookupFixture(map[string][]FragmentSource{"S1": sourcesFixture("S1", 3)}),
		testPolicy(), Options{})

	if len(statuses) != 1 {
		t.Fatalf("expected 1 entity status, got %d", len(statuses))
	}
	if statuses[0].Failed() {
		t.Fatalf("pass failed: %+v", statuses[0])
	}
	if store.puts != 3 {
		t.Fatalf("expected a persist after each of 3 sources, got %d puts", store.puts)
	}

	final := store.records["S1"]
	if len(final.History) != 2 {
		t.Fatalf("expected 2 history entries after 3 fusions, got %d", len(final.History))
	}
}

func TestRunPassIsIdempotent(t *testing.T) {
	store := newFakeStore()
	orch := NewOrchestrator(testEngine(&appendGenerator{}), store)
	lookup := lookupFixture(map[string][]FragmentSource{"S1": sourcesFixture("S1", 2)})

	orch.RunPass(context.Background(), []string{"S1"}, lookup, testPolicy(), Options{})
	before := store.records["S1"]

	statuses := orch.RunPass(context.Background(), []string{"S1"}, lookup, testPolicy(), Options{})
	after := store.records["S1"]

	for _, src := range statuses[0].Sources {
		if src.Outcome != OutcomeNoOp {
			t.Fatalf("re-run must no-op every source, got %v", src.Outcome)
		}
	}
	if before.SummaryText != after.SummaryText || len(before.History) != len(after.History) {
		t.Fatalf("re-run changed the stored record")
	}
}

func TestRunPassSkipsExcludedEntities(t *testing.T) {
	store := newFakeStore()
	orch := NewOrchestrator(testEngine(&appendGenerator{}), store)

	statuses := orch.RunPass(context.Background(), []string{"S1", "ProfJon#4002"},
		lookupFixture(map[string][]FragmentSource{
			"S1":           sourcesFixture("S1", 1),
			"ProfJon#4002": sourcesFixture("ProfJon#4002", 1),
		}),
		testPolicy(), Options{Skip: map[string]bool{"ProfJon#4002": true}})

	if len(statuses) != 1 || statuses[0].EntityID != "S1" {
		t.Fatalf("expected only S1 to run, got %+v", statuses)
	}
	if _, ok := store.records["ProfJon#4002"]; ok {
		t.Fatal("skipped entity must not be written")
	}
}

func TestRunPassStoreFailureHaltsEntityNotPass(t *testing.T) {
	store := newFakeStore()
	store.failPuts = true
	orch := NewOrchestrator(testEngine(&appendGenerator{}), store)

	statuses := orch.RunPass(context.Background(), []string{"S1", "S2"},
		lookupFixture(map[string][]FragmentSource{
			"S1": sourcesFixture("S1", 2),
			"S2": sourcesFixture("S2", 2),
		}),
		testPolicy(), Options{})

	if len(statuses) != 2 {
		t.Fatalf("both entities must be attempted, got %d statuses", len(statuses))
	}
	for _, st := range statuses {
		if st.Err == nil {
			t.Fatalf("expected store error surfaced for %s", st.EntityID)
		}
		// The write failed on the first source; the sequence must not advance.
		if len(st.Sources) != 1 {
			t.Fatalf("entity %s advanced past a failed write: %d sources attempted", st.EntityID, len(st.Sources))
		}
	}
}

// flakyGenerator succeeds until a given call number, then always fails.
type flakyGenerator struct {
	inner     appendGenerator
	failAfter int
}

func (g *flakyGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.inner.calls >= g.failAfter {
		g.inner.calls++
		return "", errors.New("model offline")
	}
	return g.inner.Generate(ctx, prompt)
}

func (g *flakyGenerator) ModelID() string { return "flaky-stub" }

func TestRunPassGeneratorFailureStopsEntitySequence(t *testing.T) {
	store := newFakeStore()
	orch := NewOrchestrator(testEngine(&flakyGenerator{failAfter: 1}), store)

	statuses := orch.RunPass(context.Background(), []string{"S1"},
		lookupFixture(map[string][]FragmentSource{"S1": sourcesFixture("S1", 3)}),
		testPolicy(), Options{})

	st := statuses[0]
	if len(st.Sources) != 2 {
		t.Fatalf("expected fusion to stop after the failed source, attempted %d", len(st.Sources))
	}
	if st.Sources[0].Outcome != OutcomeFused || st.Sources[1].Outcome != OutcomeFailed {
		t.Fatalf("unexpected outcomes: %v then %v", st.Sources[0].Outcome, st.Sources[1].Outcome)
	}
	// First fusion persisted; failed one left no trace.
	if store.puts != 1 {
		t.Fatalf("expected exactly 1 persist, got %d", store.puts)
	}
}

func TestRunPassRepeatReversesOrder(t *testing.T) {
	store := newFakeStore()
	orch := NewOrchestrator(testEngine(&appendGenerator{}), store)

	statuses := orch.RunPass(context.Background(), []string{"S1", "S2"},
		lookupFixture(map[string][]FragmentSource{
			"S1": sourcesFixture("S1", 1),
			"S2": sourcesFixture("S2", 1),
		}),
		testPolicy(), Options{Repeat: 1})

	if len(statuses) != 4 {
		t.Fatalf("expected 2 entities x 2 passes, got %d statuses", len(statuses))
	}
	if statuses[0].EntityID != "S1" || statuses[1].EntityID != "S2" {
		t.Fatalf("unexpected first-pass order: %s, %s", statuses[0].EntityID, statuses[1].EntityID)
	}
	if statuses[2].EntityID != "S2" || statuses[3].EntityID != "S1" {
		t.Fatalf("second pass must reverse order: %s, %s", statuses[2].EntityID, statuses[3].EntityID)
	}
	// Second pass sees nothing new.
	for _, st := range statuses[2:] {
		for _, src := range st.Sources {
			if src.Outcome != OutcomeNoOp {
				t.Fatalf("repeat pass must no-op, got %v", src.Outcome)
			}
		}
	}
}

func TestRunPassFanInMetaSummary(t *testing.T) {
	store := newFakeStore()
	engine := testEngine(&appendGenerator{})
	orch := NewOrchestrator(engine, store)

	// Build finished per-student records first.
	orch.RunPass(context.Background(), []string{"S1", "S2"},
		lookupFixture(map[string][]FragmentSource{
			"S1": sourcesFixture("S1", 1),
			"S2": sourcesFixture("S2", 1),
		}),
		testPolicy(), Options{})

	students := []SummaryRecord{store.records["S1"], store.records["S2"]}
	metaSources := SummariesAsSources("class", students)
	if len(metaSources) != 2 {
		t.Fatalf("expected 2 meta sources, got %d", len(metaSources))
	}

	statuses := orch.RunPass(context.Background(), []string{"class"},
		lookupFixture(map[string][]FragmentSource{"class": metaSources}),
		testPolicy(), Options{})
	if statuses[0].Failed() {
		t.Fatalf("meta pass failed: %+v", statuses[0])
	}

	class := store.records["class"]
	for _, student := range students {
		if !strings.Contains(class.SummaryText, student.SummaryText) {
			t.Fatalf("class summary missing student summary %q", student.SummaryText)
		}
	}
}
