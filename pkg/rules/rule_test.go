package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizes(t *testing.T) {
	tests := []struct {
		name  string
		preds []Predicate
		want  []Predicate
	}{
		{
			name: "sorted by feature then op",
			preds: []Predicate{
				{Feature: 2, Op: GT, Threshold: 1},
				{Feature: 0, Op: LE, Threshold: 3},
			},
			want: []Predicate{
				{Feature: 0, Op: LE, Threshold: 3},
				{Feature: 2, Op: GT, Threshold: 1},
			},
		},
		{
			name: "tightest upper bound wins",
			preds: []Predicate{
				{Feature: 0, Op: LE, Threshold: 5},
				{Feature: 0, Op: LE, Threshold: 2},
			},
			want: []Predicate{
				{Feature: 0, Op: LE, Threshold: 2},
			},
		},
		{
			name: "tightest lower bound wins",
			preds: []Predicate{
				{Feature: 1, Op: GT, Threshold: 0.5},
				{Feature: 1, Op: GT, Threshold: 4},
			},
			want: []Predicate{
				{Feature: 1, Op: GT, Threshold: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.preds)
			assert.Equal(t, tt.want, r.Predicates)
		})
	}
}

func TestKeyEqualAcrossOrderings(t *testing.T) {
	a := New([]Predicate{
		{Feature: 1, Op: GT, Threshold: 2},
		{Feature: 0, Op: LE, Threshold: 1},
	})
	b := New([]Predicate{
		{Feature: 0, Op: LE, Threshold: 1},
		{Feature: 1, Op: GT, Threshold: 2},
	})

	assert.Equal(t, a.Key(), b.Key())
}

func TestMatch(t *testing.T) {
	r := New([]Predicate{
		{Feature: 0, Op: GT, Threshold: 2},
		{Feature: 1, Op: LE, Threshold: 10},
	})

	tests := []struct {
		name string
		row  []float64
		want bool
	}{
		{"both satisfied", []float64{3, 5}, true},
		{"boundary le", []float64{3, 10}, true},
		{"boundary gt excluded", []float64{2, 5}, false},
		{"second fails", []float64{3, 11}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Match(tt.row))
		})
	}
}

func TestString(t *testing.T) {
	r := New([]Predicate{
		{Feature: 0, Op: GT, Threshold: 2.5},
		{Feature: 1, Op: LE, Threshold: 10},
	})

	assert.Equal(t, "amount > 2.5 and hour <= 10", r.String([]string{"amount", "hour"}))
	assert.Equal(t, "X0 > 2.5 and X1 <= 10", r.String(nil))
}

func TestEvaluate(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 1}

	r := New([]Predicate{{Feature: 0, Op: GT, Threshold: 0.5}}).Evaluate(x, y)
	assert.InDelta(t, 2.0/3.0, r.Precision, 1e-12)
	assert.InDelta(t, 1.0, r.Recall, 1e-12)

	// No matched rows: precision defined as 0.
	r = New([]Predicate{{Feature: 0, Op: GT, Threshold: 100}}).Evaluate(x, y)
	assert.Zero(t, r.Precision)
	assert.Zero(t, r.Recall)
}

func TestFilter(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 1}

	exact := New([]Predicate{{Feature: 0, Op: GT, Threshold: 1.5}})
	loose := New([]Predicate{{Feature: 0, Op: GT, Threshold: 0.5}})
	wrong := New([]Predicate{{Feature: 0, Op: LE, Threshold: 0.5}})

	got := Filter([]Rule{loose, wrong, exact}, x, y, 0.7, 0.5)
	require.Len(t, got, 1)
	assert.Equal(t, exact.Key(), got[0].Key())
	assert.Equal(t, 1.0, got[0].Precision)
	assert.Equal(t, 1.0, got[0].Recall)
}

func TestFilterDeduplicates(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 1}

	r := New([]Predicate{{Feature: 0, Op: GT, Threshold: 1.5}})
	dup := New([]Predicate{
		{Feature: 0, Op: GT, Threshold: 1.5},
		{Feature: 0, Op: GT, Threshold: 1.0},
	})

	got := Filter([]Rule{r, dup}, x, y, 0.1, 0.1)
	require.Len(t, got, 1)
}

func TestFilterOrdering(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 1}

	exact := New([]Predicate{{Feature: 0, Op: GT, Threshold: 1.5}})
	loose := New([]Predicate{{Feature: 0, Op: GT, Threshold: 0.5}})

	got := Filter([]Rule{loose, exact}, x, y, 0.1, 0.1)
	require.Len(t, got, 2)
	// Higher precision*recall first.
	assert.Equal(t, exact.Key(), got[0].Key())
	assert.Equal(t, loose.Key(), got[1].Key())

	// Input order must not affect the result.
	again := Filter([]Rule{exact, loose}, x, y, 0.1, 0.1)
	assert.Equal(t, got, again)
}
