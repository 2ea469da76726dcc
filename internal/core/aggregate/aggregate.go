// Package aggregate merges per-record score maps into garden-wide totals.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

// accumulator sums values by name and remembers first-seen order.
type accumulator struct {
	order []string
	sums  map[string]float64
}

func newAccumulator() *accumulator {
	return &accumulator{sums: make(map[string]float64)}
}

func (a *accumulator) add(m model.ScoreMap) {
	for _, s := range m.Scores() {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		v, ok := s.Numeric()
		if !ok {
			continue
		}
		if _, seen := a.sums[s.Name]; !seen {
			a.order = append(a.order, s.Name)
		}
		a.sums[s.Name] += v
	}
}

func (a *accumulator) sorted() []model.AggregateEntry {
	out := make([]model.AggregateEntry, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, model.AggregateEntry{Name: name, Value: a.sums[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}

// Aggregate sums numeric scores per class across records. The result is
// sorted by value descending; ties keep first-encountered order.
func Aggregate(records []model.PredictionRecord) []model.AggregateEntry {
	acc := newAccumulator()
	for _, r := range records {
		acc.add(r.ScoreMap)
	}
	return acc.sorted()
}

// TopK returns at most k entries of the full aggregate.
func TopK(records []model.PredictionRecord, k int) []model.AggregateEntry {
	return Head(Aggregate(records), k)
}

// Head truncates an already sorted aggregate to k entries.
func Head(entries []model.AggregateEntry, k int) []model.AggregateEntry {
	if k <= 0 {
		return nil
	}
	if k > len(entries) {
		k = len(entries)
	}
	return entries[:k]
}

// Entries lists the numeric scores of a single record, sorted the same
// way as Aggregate. Used as per-record chart input.
func Entries(m model.ScoreMap) []model.AggregateEntry {
	acc := newAccumulator()
	acc.add(m)
	return acc.sorted()
}

// TopPrediction returns the highest numeric score in m. The first entry
// wins ties.
func TopPrediction(m model.ScoreMap) (string, float64, bool) {
	var (
		name  string
		top   = math.Inf(-1)
		found bool
	)
	for _, s := range m.Scores() {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		v, ok := s.Numeric()
		if !ok {
			continue
		}
		if v > top {
			name, top, found = s.Name, v, true
		}
	}
	if !found {
		return "", 0, false
	}
	return name, top, true
}

// Total sums entry values.
func Total(entries []model.AggregateEntry) float64 {
	var t float64
	for _, e := range entries {
		t += e.Value
	}
	return t
}

// Percentage is value/total*100 rounded to two decimals. A zero total
// yields a non-finite result; callers check total > 0 first.
func Percentage(value, total float64) float64 {
	p := value / total * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	return math.Round(p*100) / 100
}
