// Package project stamps cluster assignments onto records and exports the
// result.
package project

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/agenthands/recordlink/internal/core/common"
	"github.com/agenthands/recordlink/internal/core/model"
)

// ApplyClusters returns one AugmentedRecord per input record, in input
// order. Cluster ids follow the order of clusters, starting at zero.
// Records outside every cluster keep nil cluster and confidence.
func ApplyClusters(records []model.Record, clusters []model.Cluster) ([]model.AugmentedRecord, error) {
	index := make(map[string]int, len(records))
	out := make([]model.AugmentedRecord, len(records))
	for i, r := range records {
		index[r.ID] = i
		out[i] = model.AugmentedRecord{Record: r}
	}

	for cid, c := range clusters {
		for _, m := range c.Members {
			i, ok := index[m.RecordID]
			if !ok {
				return nil, fmt.Errorf("cluster %d: %w %q", cid, model.ErrUnknownRecord, m.RecordID)
			}
			if out[i].ClusterID != nil {
				return nil, fmt.Errorf("cluster %d: %w: %q", cid, model.ErrOverlappingClusters, m.RecordID)
			}
			id, conf := cid, m.Confidence
			out[i].ClusterID = &id
			out[i].Confidence = &conf
		}
	}
	return out, nil
}

// Columns returns the sorted union of field names over rows.
func Columns(rows []model.AugmentedRecord) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for _, name := range r.FieldNames() {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// WriteCSV writes id, the given field columns, cluster and confidence.
// Nulls and unclustered rows are written as empty cells.
func WriteCSV(w io.Writer, columns []string, rows []model.AugmentedRecord) error {
	cw := csv.NewWriter(w)
	header := append([]string{"id"}, columns...)
	header = append(header, "cluster", "confidence")
	if err := cw.Write(header); err != nil {
		return err
	}

	line := make([]string, len(header))
	for _, r := range rows {
		line[0] = r.ID
		for i, col := range columns {
			v, _ := r.Value(col)
			line[i+1] = v
		}
		n := len(columns) + 1
		line[n], line[n+1] = "", ""
		if r.ClusterID != nil {
			line[n] = strconv.Itoa(*r.ClusterID)
		}
		if r.Confidence != nil {
			line[n+1] = strconv.FormatFloat(*r.Confidence, 'f', -1, 64)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes rows to path atomically.
func ExportCSV(path string, columns []string, rows []model.AugmentedRecord) error {
	err := common.WriteFileAtomic(path, func(w *bufio.Writer) error {
		return WriteCSV(w, columns, rows)
	})
	if err != nil {
		return fmt.Errorf("%w: export %s: %v", model.ErrPersistence, path, err)
	}
	return nil
}
