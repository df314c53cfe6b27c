package frules

import (
	"errors"
	"fmt"
)

// ErrNotFitted is returned when Predict, DecisionFunction, PredictOne,
// ScoreStream or Save is called before a successful Fit.
var ErrNotFitted = errors.New("frules: model not fitted, call Fit first")

// ParamError reports a configuration value outside its documented
// domain. It is returned eagerly at the start of Fit, before any
// training work.
type ParamError struct {
	Name  string
	Value any
	Want  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("frules: invalid %s: got %v, want %s", e.Name, e.Value, e.Want)
}

// ShapeError reports input dimensions inconsistent with each other or
// with the dimensions seen at fit time.
type ShapeError struct {
	Name string
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("frules: %s has size %d, want %d", e.Name, e.Got, e.Want)
}
