// Package store provides the persistence backends for summary records.
package store

import (
	"context"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

// SummaryStore is the full backend contract. It extends the engine-facing
// read/write pair with the query and export operations the reporting
// commands need.
type SummaryStore interface {
	fusion.Store

	// All returns every stored record, ordered by entity id.
	All(ctx context.Context) ([]fusion.SummaryRecord, error)

	// EntityIDs returns the ids of every entity that has a record.
	EntityIDs(ctx context.Context) ([]string, error)

	// Export writes every record as pretty-printed JSON to path.
	Export(ctx context.Context, path string) error

	// Close releases the backend's resources.
	Close() error
}
