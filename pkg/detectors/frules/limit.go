package frules

import (
	"fmt"
	"math"
	"strconv"
)

type limitKind uint8

const (
	limitUnset limitKind = iota
	limitAuto
	limitCount
	limitFraction
	limitSqrt
	limitLog2
)

// Limit expresses a sample or feature budget. The zero value means
// "unset" and resolves to the option's documented default.
type Limit struct {
	kind  limitKind
	count int
	frac  float64
}

// Auto resolves to the option's default policy.
func Auto() Limit { return Limit{kind: limitAuto} }

// Count resolves to an absolute number of samples or features.
func Count(n int) Limit { return Limit{kind: limitCount, count: n} }

// Fraction resolves to a fraction in (0, 1] of the available total.
func Fraction(f float64) Limit { return Limit{kind: limitFraction, frac: f} }

// Sqrt resolves to the square root of the available total.
func Sqrt() Limit { return Limit{kind: limitSqrt} }

// Log2 resolves to the base-2 logarithm of the available total.
func Log2() Limit { return Limit{kind: limitLog2} }

// ParseLimit converts a textual limit ("auto", "sqrt", "log2", an
// integer, or a fraction) into a Limit. Empty input means unset.
func ParseLimit(s string) (Limit, error) {
	switch s {
	case "":
		return Limit{}, nil
	case "auto":
		return Auto(), nil
	case "sqrt":
		return Sqrt(), nil
	case "log2":
		return Log2(), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Count(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Fraction(f), nil
	}
	return Limit{}, fmt.Errorf("frules: unrecognized limit %q", s)
}

func (l Limit) String() string {
	switch l.kind {
	case limitUnset:
		return "unset"
	case limitAuto:
		return "auto"
	case limitCount:
		return strconv.Itoa(l.count)
	case limitFraction:
		return strconv.FormatFloat(l.frac, 'g', -1, 64)
	case limitSqrt:
		return "sqrt"
	case limitLog2:
		return "log2"
	}
	return "invalid"
}

// resolveSamples resolves a Limit against the number of training rows.
// Unset and auto both default to min(256, total). Counts above the
// total are clipped and reported through warn.
func resolveSamples(name string, l Limit, total int, warn func(string)) (int, error) {
	switch l.kind {
	case limitUnset, limitAuto:
		if total < 256 {
			return total, nil
		}
		return 256, nil
	case limitCount:
		if l.count <= 0 {
			return 0, &ParamError{Name: name, Value: l.count, Want: "a positive count"}
		}
		if l.count > total {
			warn(name + " will be set to n_samples for estimation")
			return total, nil
		}
		return l.count, nil
	case limitFraction:
		if l.frac <= 0 || l.frac > 1 {
			return 0, &ParamError{Name: name, Value: l.frac, Want: "a fraction in (0, 1]"}
		}
		n := int(l.frac * float64(total))
		if n < 1 {
			n = 1
		}
		return n, nil
	}
	return 0, &ParamError{Name: name, Value: l.String(), Want: "auto, a count, or a fraction"}
}

// resolveFeatures resolves a Limit against the number of columns.
// Unset and auto default to all features; sqrt and log2 are accepted.
func resolveFeatures(name string, l Limit, total int, warn func(string)) (int, error) {
	switch l.kind {
	case limitUnset, limitAuto:
		return total, nil
	case limitSqrt:
		return atLeastOne(math.Sqrt(float64(total))), nil
	case limitLog2:
		return atLeastOne(math.Log2(float64(total))), nil
	case limitCount:
		if l.count <= 0 {
			return 0, &ParamError{Name: name, Value: l.count, Want: "a positive count"}
		}
		if l.count > total {
			warn(name + " will be set to n_features for estimation")
			return total, nil
		}
		return l.count, nil
	case limitFraction:
		if l.frac <= 0 || l.frac > 1 {
			return 0, &ParamError{Name: name, Value: l.frac, Want: "a fraction in (0, 1]"}
		}
		return atLeastOne(l.frac * float64(total)), nil
	}
	return 0, &ParamError{Name: name, Value: l.String(), Want: "auto, sqrt, log2, a count, or a fraction"}
}

// resolveMinSplit resolves min_samples_split: a count >= 2 or a
// fraction in (0, 1] of the sub-sample size, rounded up.
func resolveMinSplit(l Limit, total int) (int, error) {
	switch l.kind {
	case limitUnset:
		return 2, nil
	case limitCount:
		if l.count < 2 {
			return 0, &ParamError{Name: "min_samples_split", Value: l.count, Want: "a count >= 2"}
		}
		return l.count, nil
	case limitFraction:
		if l.frac <= 0 || l.frac > 1 {
			return 0, &ParamError{Name: "min_samples_split", Value: l.frac, Want: "a fraction in (0, 1]"}
		}
		n := int(math.Ceil(l.frac * float64(total)))
		if n < 2 {
			n = 2
		}
		return n, nil
	}
	return 0, &ParamError{Name: "min_samples_split", Value: l.String(), Want: "a count >= 2 or a fraction in (0, 1]"}
}

func atLeastOne(v float64) int {
	n := int(v)
	if n < 1 {
		n = 1
	}
	return n
}
