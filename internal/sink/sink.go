// Package sink persists a duplicate -> canonical mapping table.
package sink

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agenthands/recordlink/internal/core/model"
)

// MappingSink stores a complete mapping, replacing whatever it held before.
// Implementations must leave the previous mapping in place on failure.
type MappingSink interface {
	WriteMapping(ctx context.Context, entries []model.MappingEntry, width int) error
}

// Publish checks that every id is exactly width characters and hands the
// entries to s. Nothing reaches the sink if any id fails the check.
func Publish(ctx context.Context, s MappingSink, entries []model.MappingEntry, width int) error {
	if width <= 0 {
		return fmt.Errorf("id width must be positive, got %d", width)
	}
	for i, e := range entries {
		for _, id := range []string{e.Duplicate, e.Canonical} {
			if utf8.RuneCountInString(id) != width {
				return fmt.Errorf("entry %d: %w: %q is not %d characters", i, model.ErrIDWidth, id, width)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.WriteMapping(ctx, entries, width); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}

// DefaultTable is the mapping table name used for an entity type.
func DefaultTable(entity string) string {
	return "final_" + entity + "_mapping"
}
