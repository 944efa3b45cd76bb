// Package consolidate turns pairwise duplicate judgments into equivalence
// classes with one canonical id each.
package consolidate

import (
	"io"
	"log/slog"
	"sort"

	"github.com/agenthands/recordlink/internal/core/model"
)

// TieBreak records a judgment that joined two established classes without a
// preference naming one of their canonicals. The older canonical was kept.
type TieBreak struct {
	Judgment model.Judgment `json:"judgment"`
	Kept     string         `json:"kept"`
	Absorbed string         `json:"absorbed"`
}

// Rejection is a judgment that could not be applied.
type Rejection struct {
	Index    int            `json:"index"`
	Judgment model.Judgment `json:"judgment"`
	Err      error          `json:"-"`
	Reason   string         `json:"reason"`
}

// Report summarises a batch of judgments.
type Report struct {
	Applied   int         `json:"applied"`
	Merged    int         `json:"merged"`
	Rejected  []Rejection `json:"rejected,omitempty"`
	TieBreaks []TieBreak  `json:"tie_breaks,omitempty"`
}

// Engine is a union-find over record ids. The canonical id of a class is
// always its root. Not safe for concurrent use.
type Engine struct {
	parent map[string]string
	// since holds, for each canonical, the judgment sequence number at which
	// it became canonical. First-seen tie-breaks compare these.
	since     map[string]int
	ids       []string
	seq       int
	tieBreaks []TieBreak
	logger    *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		parent: make(map[string]string),
		since:  make(map[string]int),
		logger: logger,
	}
}

// AddJudgment unions the classes of j.A and j.B. Applying a judgment whose
// ids already share a class is a no-op.
func (e *Engine) AddJudgment(j model.Judgment) error {
	if err := j.Validate(); err != nil {
		return err
	}
	e.seq++

	newA := e.register(j.A)
	newB := e.register(j.B)
	ra, rb := e.find(j.A), e.find(j.B)
	if ra == rb {
		return nil
	}

	var keep, drop string
	switch j.Preferred {
	case model.PreferFirst:
		keep, drop = e.withPreference(j, j.A, ra, newA, rb, newB)
	case model.PreferSecond:
		keep, drop = e.withPreference(j, j.B, rb, newB, ra, newA)
	default:
		switch {
		case newB:
			keep, drop = ra, rb
		case newA:
			keep, drop = rb, ra
		default:
			keep, drop = e.tieBreak(j, ra, rb)
		}
	}

	e.union(keep, drop)
	return nil
}

// withPreference picks the surviving canonical when the judgment prefers id
// p. A preference only decides between ids that are new or that already are
// their class's canonical; an established canonical on the other side is
// never displaced by a new id or a non-canonical member.
func (e *Engine) withPreference(j model.Judgment, p, rp string, newP bool, ro string, newO bool) (string, string) {
	switch {
	case newO:
		return rp, ro
	case newP:
		e.logger.Warn("preferred id is new; keeping the established canonical",
			"id_a", j.A, "id_b", j.B, "preferred", p, "kept", ro)
		return ro, rp
	case p == rp:
		return rp, ro
	default:
		return e.tieBreak(j, rp, ro)
	}
}

// tieBreak keeps whichever of two established canonicals became canonical
// first and records the decision.
func (e *Engine) tieBreak(j model.Judgment, ra, rb string) (string, string) {
	keep, drop := ra, rb
	if e.since[rb] < e.since[ra] {
		keep, drop = rb, ra
	}
	e.tieBreaks = append(e.tieBreaks, TieBreak{Judgment: j, Kept: keep, Absorbed: drop})
	e.logger.Warn("judgment joins two established classes without a usable preference; keeping first-seen canonical",
		"id_a", j.A, "id_b", j.B, "kept", keep, "absorbed", drop)
	return keep, drop
}

// AddAll applies judgments in order. Invalid judgments are reported and
// skipped; the rest are still applied.
func (e *Engine) AddAll(judgments []model.Judgment) Report {
	var report Report
	startTies := len(e.tieBreaks)
	for i, j := range judgments {
		joined := e.sameClass(j.A, j.B)
		if err := e.AddJudgment(j); err != nil {
			e.logger.Warn("rejected judgment", "index", i, "id_a", j.A, "id_b", j.B, "error", err)
			report.Rejected = append(report.Rejected, Rejection{Index: i, Judgment: j, Err: err, Reason: err.Error()})
			continue
		}
		report.Applied++
		if !joined {
			report.Merged++
		}
	}
	report.TieBreaks = append(report.TieBreaks, e.tieBreaks[startTies:]...)
	return report
}

// Find returns the current canonical of id.
func (e *Engine) Find(id string) (string, bool) {
	if _, ok := e.parent[id]; !ok {
		return "", false
	}
	return e.find(id), true
}

// Len is the number of distinct ids seen.
func (e *Engine) Len() int {
	return len(e.ids)
}

// Warnings returns every tie-break resolved so far.
func (e *Engine) Warnings() []TieBreak {
	out := make([]TieBreak, len(e.tieBreaks))
	copy(out, e.tieBreaks)
	return out
}

// Finalize returns one entry per non-canonical id, ordered by
// (canonical, duplicate).
func (e *Engine) Finalize() []model.MappingEntry {
	entries := make([]model.MappingEntry, 0, len(e.ids))
	for _, id := range e.ids {
		root := e.find(id)
		if root != id {
			entries = append(entries, model.MappingEntry{Duplicate: id, Canonical: root})
		}
	}
	sort.Slice(entries, func(i, k int) bool {
		if entries[i].Canonical != entries[k].Canonical {
			return entries[i].Canonical < entries[k].Canonical
		}
		return entries[i].Duplicate < entries[k].Duplicate
	})
	return entries
}

// Classes returns every class ordered by canonical id, members sorted.
func (e *Engine) Classes() []model.EquivalenceClass {
	byRoot := make(map[string][]string)
	for _, id := range e.ids {
		root := e.find(id)
		if _, ok := byRoot[root]; !ok {
			byRoot[root] = nil
		}
		if root != id {
			byRoot[root] = append(byRoot[root], id)
		}
	}
	classes := make([]model.EquivalenceClass, 0, len(byRoot))
	for root, members := range byRoot {
		sort.Strings(members)
		classes = append(classes, model.EquivalenceClass{Canonical: root, Members: members})
	}
	sort.Slice(classes, func(i, k int) bool { return classes[i].Canonical < classes[k].Canonical })
	return classes
}

// register adds id as its own singleton root and reports whether it was new.
func (e *Engine) register(id string) bool {
	if _, ok := e.parent[id]; ok {
		return false
	}
	e.parent[id] = id
	e.ids = append(e.ids, id)
	return true
}

func (e *Engine) find(id string) string {
	root := id
	for e.parent[root] != root {
		root = e.parent[root]
	}
	for id != root {
		next := e.parent[id]
		e.parent[id] = root
		id = next
	}
	return root
}

func (e *Engine) union(keep, drop string) {
	e.parent[drop] = keep
	if _, ok := e.since[keep]; !ok {
		e.since[keep] = e.seq
	}
	delete(e.since, drop)
}

func (e *Engine) sameClass(a, b string) bool {
	if _, ok := e.parent[a]; !ok {
		return false
	}
	if _, ok := e.parent[b]; !ok {
		return false
	}
	return e.find(a) == e.find(b)
}
