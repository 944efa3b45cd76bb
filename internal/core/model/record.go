package model

import "sort"

// Record is a single entity row (agent, edition, work) keyed by its code.
// A nil field value means the cell was empty.
type Record struct {
	ID     string             `json:"id"`
	Fields map[string]*string `json:"fields"`
}

// NewRecord builds a Record from plain cell values. Empty strings become nulls.
func NewRecord(id string, fields map[string]string) Record {
	r := Record{ID: id, Fields: make(map[string]*string, len(fields))}
	for k, v := range fields {
		if v == "" {
			r.Fields[k] = nil
			continue
		}
		val := v
		r.Fields[k] = &val
	}
	return r
}

// Value returns the field value and whether it is present and non-null.
func (r Record) Value(field string) (string, bool) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// FieldNames returns the record's field names in sorted order.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
