package fusion

import "time"

// NoSummaryYet is the sentinel text a record carries before its first fusion.
const NoSummaryYet = "[NO SUMMARY YET]"

// Snapshot is one superseded summary kept in a record's audit trail.
type Snapshot struct {
	SummaryText string    `bson:"summary_text" json:"summary_text"`
	ModelID     string    `bson:"model" json:"model"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// SummaryRecord is the persisted, versioned state for one entity: the current
// summary plus every previous one. History is append-only; the system must
// always be able to show what it believed about an entity at any past time.
type SummaryRecord struct {
	EntityID       string     `bson:"entity_id" json:"entity_id"`
	SummaryText    string     `bson:"summary_text" json:"summary_text"`
	ModelID        string     `bson:"model" json:"model"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	SchemaDegraded bool       `bson:"schema_degraded,omitempty" json:"schema_degraded,omitempty"`
	History        []Snapshot `bson:"history" json:"history"`
}

// NewRecord returns the sentinel record for an entity that has never been summarized.
func NewRecord(entityID string) SummaryRecord {
	return SummaryRecord{
		EntityID:    entityID,
		SummaryText: NoSummaryYet,
	}
}

// IsSentinel reports whether the record has never been through a successful fusion.
func (r SummaryRecord) IsSentinel() bool {
	return r.CreatedAt.IsZero()
}

// Snapshot captures the record's current summary for the history trail.
func (r SummaryRecord) Snapshot() Snapshot {
	return Snapshot{
		SummaryText: r.SummaryText,
		ModelID:     r.ModelID,
		CreatedAt:   r.CreatedAt,
	}
}

// Clone deep-copies the record so callers can hold it across a fusion without aliasing history.
func (r SummaryRecord) Clone() SummaryRecord {
	out := r
	out.History = append([]Snapshot(nil), r.History...)
	return out
}
