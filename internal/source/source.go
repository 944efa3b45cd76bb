// Package source reads judgment sheets and record tables exported as CSV.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agenthands/recordlink/internal/core/model"
)

// JudgmentColumns names the columns of a judgment sheet. Preferred is
// optional; when set it holds the one-based position (1 or 2) of the
// record to keep.
type JudgmentColumns struct {
	IDA       string
	IDB       string
	Flag      string
	Preferred string
}

// RowError is a sheet row that could not be turned into a judgment.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// JudgmentSheet is what ReadJudgments found.
type JudgmentSheet struct {
	Judgments []model.Judgment
	// Unconfirmed counts rows skipped because their flag was not Y.
	Unconfirmed int
	Malformed   []RowError
}

// ReadJudgments reads confirmed judgments from a CSV sheet. Only rows whose
// flag is Y are kept. An optional "confidence" column is read when present.
// Rows with an unparseable preferred or confidence cell are reported in
// Malformed and skipped. Range checks are left to the engine.
func ReadJudgments(r io.Reader, cols JudgmentColumns) (*JudgmentSheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(header, cols.IDA, cols.IDB, cols.Flag)
	if err != nil {
		return nil, err
	}
	prefIdx := -1
	if cols.Preferred != "" {
		p, err := columnIndex(header, cols.Preferred)
		if err != nil {
			return nil, err
		}
		prefIdx = p[0]
	}
	confIdx := -1
	if c, err := columnIndex(header, "confidence"); err == nil {
		confIdx = c[0]
	}

	sheet := &JudgmentSheet{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if cell(row, idx[2]) != "Y" {
			sheet.Unconfirmed++
			continue
		}

		j := model.Judgment{A: cell(row, idx[0]), B: cell(row, idx[1])}
		if raw := cell(row, prefIdx); raw != "" {
			n, err := strconv.Atoi(raw)
			if err == nil {
				j.Preferred, err = model.PreferenceFromIndex(n - 1)
			}
			if err != nil {
				sheet.Malformed = append(sheet.Malformed, RowError{Line: line, Err: fmt.Sprintf("preferred %q: %v", raw, err)})
				continue
			}
		}
		if raw := cell(row, confIdx); raw != "" {
			c, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				sheet.Malformed = append(sheet.Malformed, RowError{Line: line, Err: fmt.Sprintf("confidence %q: %v", raw, err)})
				continue
			}
			j.Confidence = c
		}
		sheet.Judgments = append(sheet.Judgments, j)
	}
	return sheet, nil
}

// ReadRecords reads a table whose idColumn holds the record id. Every other
// column becomes a field; empty cells are null.
func ReadRecords(r io.Reader, idColumn string) ([]model.Record, error) {
	cr := csv.NewReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(header, idColumn)
	if err != nil {
		return nil, err
	}

	var records []model.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id := strings.TrimSpace(row[idx[0]])
		if id == "" {
			return nil, fmt.Errorf("line %d: empty %s", line, idColumn)
		}
		fields := make(map[string]string, len(header)-1)
		for i, name := range header {
			if i != idx[0] {
				fields[name] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, model.NewRecord(id, fields))
	}
	return records, nil
}

// ReadPairs reads candidate pairs for review: two id columns referring to
// records in byID.
func ReadPairs(r io.Reader, idA, idB string, byID map[string]model.Record) ([]model.CandidatePair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(header, idA, idB)
	if err != nil {
		return nil, err
	}

	var pairs []model.CandidatePair
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		a, okA := byID[cell(row, idx[0])]
		b, okB := byID[cell(row, idx[1])]
		if !okA || !okB {
			return nil, fmt.Errorf("line %d: %w", line, model.ErrUnknownRecord)
		}
		pairs = append(pairs, model.CandidatePair{A: a, B: b})
	}
	return pairs, nil
}

// readHeader reads the first row with any UTF-8 byte order mark removed
// from the first column name.
func readHeader(cr *csv.Reader) ([]string, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	return header, nil
}

func columnIndex(header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	out := make([]int, len(names))
	for i, n := range names {
		p, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("missing column %q", n)
		}
		out[i] = p
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// WriteJudgments writes judgments in the sheet layout ReadJudgments reads
// back, with every row flagged Y and preferred written one-based.
func WriteJudgments(w io.Writer, cols JudgmentColumns, judgments []model.Judgment) error {
	pref := cols.Preferred
	if pref == "" {
		pref = "preferred"
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{cols.IDA, cols.IDB, cols.Flag, pref, "confidence"}); err != nil {
		return err
	}
	for _, j := range judgments {
		p := ""
		if i := j.Preferred.Index(); i >= 0 {
			p = strconv.Itoa(i + 1)
		}
		conf := ""
		if j.Confidence > 0 {
			conf = strconv.FormatFloat(j.Confidence, 'f', -1, 64)
		}
		if err := cw.Write([]string{j.A, j.B, "Y", p, conf}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
