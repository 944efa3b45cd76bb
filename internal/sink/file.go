package sink

import (
	"bufio"
	"context"
	"encoding/csv"

	"github.com/agenthands/recordlink/internal/core/common"
	"github.com/agenthands/recordlink/internal/core/model"
)

// FileSink writes the mapping as a two-column CSV.
type FileSink struct {
	Path string
}

func (s FileSink) WriteMapping(ctx context.Context, entries []model.MappingEntry, _ int) error {
	return common.WriteFileAtomic(s.Path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"duplicate_id", "canonical_id"}); err != nil {
			return err
		}
		for _, e := range entries {
			if err := cw.Write([]string{e.Duplicate, e.Canonical}); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		return ctx.Err()
	})
}
