package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

// exportJSON dumps every record to path as a map keyed by entity id,
// written atomically via a temp file rename.
func exportJSON(ctx context.Context, s SummaryStore, path string) error {
	records, err := s.All(ctx)
	if err != nil {
		return fmt.Errorf("load records for export: %w", err)
	}
	byEntity := make(map[string]fusion.SummaryRecord, len(records))
	for _, rec := range records {
		byEntity[rec.EntityID] = rec
	}
	data, err := json.MarshalIndent(byEntity, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
