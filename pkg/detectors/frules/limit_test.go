package frules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSamples(t *testing.T) {
	tests := []struct {
		name     string
		limit    Limit
		total    int
		want     int
		wantWarn bool
		wantErr  bool
	}{
		{name: "unset small dataset", limit: Limit{}, total: 100, want: 100},
		{name: "unset large dataset", limit: Limit{}, total: 10000, want: 256},
		{name: "auto", limit: Auto(), total: 500, want: 256},
		{name: "full fraction", limit: Fraction(1.0), total: 150, want: 150},
		{name: "partial fraction floors", limit: Fraction(0.4), total: 150, want: 60},
		{name: "tiny fraction keeps one row", limit: Fraction(0.001), total: 100, want: 1},
		{name: "count in range", limit: Count(2), total: 150, want: 2},
		{name: "count clipped", limit: Count(1000), total: 150, want: 150, wantWarn: true},
		{name: "negative count", limit: Count(-1), total: 150, wantErr: true},
		{name: "zero fraction", limit: Fraction(0.0), total: 150, wantErr: true},
		{name: "fraction above one", limit: Fraction(2.0), total: 150, wantErr: true},
		{name: "fraction slightly above one", limit: Fraction(1.5), total: 150, wantErr: true},
		{name: "sqrt not a sample policy", limit: Sqrt(), total: 150, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warnings []string
			got, err := resolveSamples("max_samples", tt.limit, tt.total, func(msg string) {
				warnings = append(warnings, msg)
			})

			if tt.wantErr {
				var perr *ParamError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "max_samples", perr.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantWarn {
				require.Len(t, warnings, 1)
				assert.Equal(t, "max_samples will be set to n_samples for estimation", warnings[0])
			} else {
				assert.Empty(t, warnings)
			}
		})
	}
}

func TestResolveFeatures(t *testing.T) {
	noWarn := func(string) {}

	tests := []struct {
		name    string
		limit   Limit
		total   int
		want    int
		wantErr bool
	}{
		{name: "unset means all", limit: Limit{}, total: 9, want: 9},
		{name: "auto means all", limit: Auto(), total: 9, want: 9},
		{name: "sqrt", limit: Sqrt(), total: 9, want: 3},
		{name: "log2", limit: Log2(), total: 8, want: 3},
		{name: "fraction", limit: Fraction(0.5), total: 9, want: 4},
		{name: "fraction keeps one", limit: Fraction(0.01), total: 9, want: 1},
		{name: "count", limit: Count(2), total: 9, want: 2},
		{name: "zero count", limit: Count(0), total: 9, wantErr: true},
		{name: "bad fraction", limit: Fraction(1.2), total: 9, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFeatures("max_features", tt.limit, tt.total, noWarn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMinSplit(t *testing.T) {
	tests := []struct {
		name    string
		limit   Limit
		total   int
		want    int
		wantErr bool
	}{
		{name: "unset defaults to two", limit: Limit{}, total: 100, want: 2},
		{name: "count", limit: Count(10), total: 100, want: 10},
		{name: "count below two", limit: Count(1), total: 100, wantErr: true},
		{name: "fraction rounds up", limit: Fraction(0.1), total: 25, want: 3},
		{name: "fraction floor of two", limit: Fraction(0.001), total: 100, want: 2},
		{name: "auto rejected", limit: Auto(), total: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveMinSplit(tt.limit, tt.total)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    Limit
		wantErr bool
	}{
		{in: "", want: Limit{}},
		{in: "auto", want: Auto()},
		{in: "sqrt", want: Sqrt()},
		{in: "log2", want: Log2()},
		{in: "12", want: Count(12)},
		{in: "0.4", want: Fraction(0.4)},
		{in: "foobar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLimit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
