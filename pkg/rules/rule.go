// Package rules models decision rules extracted from tree paths.
//
// A rule is a conjunction of feature-threshold predicates. Rules are
// normalized on construction so that structurally identical rules coming
// from different trees compare equal.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Op is a predicate comparison operator.
type Op uint8

const (
	// LE matches rows where the feature value is <= the threshold.
	LE Op = iota
	// GT matches rows where the feature value is > the threshold.
	GT
)

func (o Op) String() string {
	if o == LE {
		return "<="
	}
	return ">"
}

// Predicate is a single feature-threshold condition.
type Predicate struct {
	Feature   int
	Op        Op
	Threshold float64
}

// Match reports whether the row satisfies the predicate.
func (p Predicate) Match(row []float64) bool {
	if p.Op == LE {
		return row[p.Feature] <= p.Threshold
	}
	return row[p.Feature] > p.Threshold
}

// Rule is an immutable conjunction of predicates plus its performance
// on the training set it was evaluated against.
type Rule struct {
	Predicates []Predicate

	// Precision is the fraction of matched rows that are positive.
	Precision float64
	// Recall is the fraction of positive rows that are matched.
	Recall float64
}

// New builds a normalized rule from a decision path. Predicates on the
// same feature and operator are collapsed to the tightest bound, and the
// remainder is sorted by feature, operator and threshold.
func New(preds []Predicate) Rule {
	type bound struct {
		feature int
		op      Op
	}
	tight := make(map[bound]float64, len(preds))
	for _, p := range preds {
		b := bound{p.Feature, p.Op}
		t, ok := tight[b]
		if !ok {
			tight[b] = p.Threshold
			continue
		}
		if p.Op == LE && p.Threshold < t {
			tight[b] = p.Threshold
		}
		if p.Op == GT && p.Threshold > t {
			tight[b] = p.Threshold
		}
	}

	out := make([]Predicate, 0, len(tight))
	for b, t := range tight {
		out = append(out, Predicate{Feature: b.feature, Op: b.op, Threshold: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Feature != out[j].Feature {
			return out[i].Feature < out[j].Feature
		}
		if out[i].Op != out[j].Op {
			return out[i].Op < out[j].Op
		}
		return out[i].Threshold < out[j].Threshold
	})

	return Rule{Predicates: out}
}

// Match reports whether the row satisfies every predicate.
func (r Rule) Match(row []float64) bool {
	for _, p := range r.Predicates {
		if !p.Match(row) {
			return false
		}
	}
	return true
}

// Score is the ranking score used for deduplication and ordering.
func (r Rule) Score() float64 {
	return r.Precision * r.Recall
}

// Key is a canonical, feature-name-independent identity for the rule.
// Two rules with the same key are structurally equal.
func (r Rule) Key() string {
	var b strings.Builder
	for i, p := range r.Predicates {
		if i > 0 {
			b.WriteString(" and ")
		}
		b.WriteString("X")
		b.WriteString(strconv.Itoa(p.Feature))
		b.WriteString(" ")
		b.WriteString(p.Op.String())
		b.WriteString(" ")
		b.WriteString(strconv.FormatFloat(p.Threshold, 'g', -1, 64))
	}
	return b.String()
}

// String renders the rule using the given feature names. When names is
// nil or too short for a feature index, "X<i>" is used instead.
func (r Rule) String(names []string) string {
	var b strings.Builder
	for i, p := range r.Predicates {
		if i > 0 {
			b.WriteString(" and ")
		}
		if p.Feature < len(names) {
			b.WriteString(names[p.Feature])
		} else {
			fmt.Fprintf(&b, "X%d", p.Feature)
		}
		b.WriteString(" ")
		b.WriteString(p.Op.String())
		b.WriteString(" ")
		b.WriteString(strconv.FormatFloat(p.Threshold, 'g', -1, 64))
	}
	return b.String()
}

// Evaluate returns a copy of the rule with Precision and Recall computed
// against the full labeled dataset. Precision is 0 when no row matches.
func (r Rule) Evaluate(x [][]float64, y []int) Rule {
	var matched, hits, positives int
	for i, row := range x {
		if y[i] == 1 {
			positives++
		}
		if r.Match(row) {
			matched++
			if y[i] == 1 {
				hits++
			}
		}
	}

	out := r
	if matched > 0 {
		out.Precision = float64(hits) / float64(matched)
	}
	if positives > 0 {
		out.Recall = float64(hits) / float64(positives)
	}
	return out
}
