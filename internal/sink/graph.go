package sink

import (
	"context"
	"time"

	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/driver"
	"github.com/google/uuid"
)

const graphBatchSize = 1000

// GraphSink stores the mapping as DUPLICATE_OF edges between Record nodes
// of one entity type.
type GraphSink struct {
	Driver driver.GraphDriver
	Entity string
	// RunID tags every edge written. A random id is used when empty.
	RunID string
}

func (s GraphSink) WriteMapping(ctx context.Context, entries []model.MappingEntry, _ int) error {
	runID := s.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)

	return s.Driver.ExecuteWrite(ctx, func(tx driver.QueryRunner) error {
		if err := tx.Run(ctx, driver.DeleteMappingQuery, map[string]interface{}{"entity": s.Entity}); err != nil {
			return err
		}
		for start := 0; start < len(entries); start += graphBatchSize {
			end := min(start+graphBatchSize, len(entries))
			rows := make([]interface{}, 0, end-start)
			for _, e := range entries[start:end] {
				rows = append(rows, map[string]interface{}{
					"duplicate": e.Duplicate,
					"canonical": e.Canonical,
				})
			}
			err := tx.Run(ctx, driver.SaveMappingQuery, map[string]interface{}{
				"rows":       rows,
				"entity":     s.Entity,
				"run_id":     runID,
				"created_at": createdAt,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
