// Package detectors provides anomaly detection algorithms.
package detectors

import "context"

// Detector is the common interface for supervised anomaly detectors:
// models trained on labeled data (0 = normal, 1 = anomalous).
type Detector interface {
	// Fit trains the detector. x is a 2D slice where each row is a
	// sample and each column is a feature; y holds the binary labels.
	Fit(x [][]float64, y []int) error

	// Predict returns a 0/1 label per row of x.
	Predict(x [][]float64) ([]int, error)

	// DecisionFunction returns a real-valued anomaly score per row.
	// More negative means more anomalous; a negative score maps to a
	// predicted label of 1.
	DecisionFunction(x [][]float64) ([]float64, error)

	// PredictOne returns the decision score for a single sample.
	PredictOne(sample []float64) (float64, error)

	// Save serializes the trained model to bytes.
	Save() ([]byte, error)

	// Load deserializes a trained model from bytes.
	Load(data []byte) error
}

// StreamDetector extends Detector with streaming capabilities.
type StreamDetector interface {
	Detector

	// ScoreStream processes samples from a channel and outputs scores.
	ScoreStream(ctx context.Context, input <-chan []float64, output chan<- Score) error
}

// Score represents a detection result for a single sample.
type Score struct {
	// Value is the decision score; negative values indicate anomalies.
	Value float64
	// IsAnomaly indicates if the sample was flagged.
	IsAnomaly bool
	// Features contains the original input features.
	Features []float64
	// Metadata contains additional information.
	Metadata map[string]any
}
