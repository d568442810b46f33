package fusion

import (
	"sort"
	"strings"
	"time"
)

// FragmentSource is one batch of ordered raw-text fragments tied to one
// entity and one timestamp. The ingestion layer (thread scraper, green-check
// collector) produces these; the engine only reads them.
type FragmentSource struct {
	EntityID  string
	Fragments []string
	CreatedAt time.Time
}

// Text joins the fragments in order. Insertion order is chronological order.
func (s FragmentSource) Text() string {
	return strings.Join(s.Fragments, "\n")
}

// SummariesAsSources adapts finished summaries into the fragment stream for a
// higher-level entity, so a class-wide record can be folded from per-student
// records with the same engine and the same staleness rules. Sources come
// back ordered by each record's timestamp, oldest first.
func SummariesAsSources(metaEntityID string, records []SummaryRecord) []FragmentSource {
	sources := make([]FragmentSource, 0, len(records))
	for _, rec := range records {
		if rec.IsSentinel() {
			continue
		}
		sources = append(sources, FragmentSource{
			EntityID:  metaEntityID,
			Fragments: []string{rec.SummaryText},
			CreatedAt: rec.CreatedAt,
		})
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].CreatedAt.Before(sources[j].CreatedAt)
	})
	return sources
}
