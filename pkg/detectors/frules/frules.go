// Package frules implements supervised fraud-rule extraction: an
// ensemble of randomized decision trees is grown on labeled data, tree
// decision paths ending in anomalous leaves are converted into logical
// rules, and the rules surviving precision/recall filtering score and
// classify new samples.
package frules

import (
	"bytes"
	"context"
	"encoding/gob"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/hed1ad/fraudrules/pkg/detectors"
	"github.com/hed1ad/fraudrules/pkg/rules"
	"github.com/hed1ad/fraudrules/pkg/tree"
)

// FraudRules extracts human-readable anomaly rules from an ensemble of
// randomized decision trees and uses them to score new samples.
type FraudRules struct {
	mu sync.RWMutex

	// Configuration
	featureNames    []string
	precisionMin    float64
	recallMin       float64
	nEstimators     int
	maxSamples      Limit
	maxSamplesFeats Limit
	bootstrap       bool
	bootstrapFeats  bool
	maxDepth        int
	minSamplesSplit Limit
	maxFeatures     Limit
	purityMin       float64
	jobs            int
	seed            int64
	trainer         tree.Trainer

	// Fitted state
	ruleSet         []rules.Rule
	nFeatures       int
	resolvedSamples int
	workers         int
	trained         bool
	warnings        []string
}

// Option configures a FraudRules estimator.
type Option func(*FraudRules)

// WithFeatureNames sets the names used to render extracted rules. The
// length must match the number of columns seen at fit time.
func WithFeatureNames(names []string) Option {
	return func(f *FraudRules) {
		f.featureNames = names
	}
}

// WithPrecisionMin sets the minimum precision a rule must reach on the
// full training set to survive filtering.
func WithPrecisionMin(p float64) Option {
	return func(f *FraudRules) {
		f.precisionMin = p
	}
}

// WithRecallMin sets the minimum recall a rule must reach on the full
// training set to survive filtering.
func WithRecallMin(r float64) Option {
	return func(f *FraudRules) {
		f.recallMin = r
	}
}

// WithEstimators sets the number of trees in the ensemble.
func WithEstimators(n int) Option {
	return func(f *FraudRules) {
		f.nEstimators = n
	}
}

// WithMaxSamples sets the row budget drawn per tree.
func WithMaxSamples(l Limit) Option {
	return func(f *FraudRules) {
		f.maxSamples = l
	}
}

// WithMaxSamplesFeatures sets the column budget drawn per tree.
func WithMaxSamplesFeatures(l Limit) Option {
	return func(f *FraudRules) {
		f.maxSamplesFeats = l
	}
}

// WithBootstrap draws the per-tree rows with replacement.
func WithBootstrap(b bool) Option {
	return func(f *FraudRules) {
		f.bootstrap = b
	}
}

// WithBootstrapFeatures draws the per-tree columns with replacement.
func WithBootstrapFeatures(b bool) Option {
	return func(f *FraudRules) {
		f.bootstrapFeats = b
	}
}

// WithMaxDepth limits the depth of each tree.
func WithMaxDepth(d int) Option {
	return func(f *FraudRules) {
		f.maxDepth = d
	}
}

// WithMinSamplesSplit sets the minimum node size considered for a
// split, as a count >= 2 or a fraction of the per-tree sample count.
func WithMinSamplesSplit(l Limit) Option {
	return func(f *FraudRules) {
		f.minSamplesSplit = l
	}
}

// WithMaxFeatures sets the number of features examined per split.
func WithMaxFeatures(l Limit) Option {
	return func(f *FraudRules) {
		f.maxFeatures = l
	}
}

// WithPurityMin sets the minimum positive fraction a leaf needs for its
// path to become a candidate rule. The default accepts any leaf holding
// at least one positive training sample.
func WithPurityMin(p float64) Option {
	return func(f *FraudRules) {
		f.purityMin = p
	}
}

// WithJobs sets the worker count for tree training and row scoring:
// -1 uses all CPUs, a positive value uses exactly that many.
func WithJobs(n int) Option {
	return func(f *FraudRules) {
		f.jobs = n
	}
}

// WithSeed sets the random seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(f *FraudRules) {
		f.seed = seed
	}
}

// WithTrainer replaces the built-in CART trainer with a custom tree
// training capability.
func WithTrainer(t tree.Trainer) Option {
	return func(f *FraudRules) {
		f.trainer = t
	}
}

// New creates a new FraudRules estimator with the given options.
func New(opts ...Option) *FraudRules {
	f := &FraudRules{
		precisionMin: 0.5,
		recallMin:    0.01,
		nEstimators:  10,
		maxDepth:     3,
		jobs:         1,
		seed:         42,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// treeJob carries one tree's sub-sample draw to the worker pool.
type treeJob struct {
	id   int
	rows []int
	cols []int
	seed int64
}

// Fit trains the estimator on labeled data (0 = normal, 1 = anomalous).
// All configuration is validated before any tree is grown. A fit that
// leaves zero surviving rules is valid; such a model scores everything
// as normal. Fit is not safe to call concurrently on one estimator.
func (f *FraudRules) Fit(x [][]float64, y []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.warnings = nil
	warn := func(msg string) {
		f.warnings = append(f.warnings, msg)
	}

	if err := validateData(x, y); err != nil {
		return err
	}
	if err := f.validateConfig(len(x[0])); err != nil {
		return err
	}

	nSamples, err := resolveSamples("max_samples", f.maxSamples, len(x), warn)
	if err != nil {
		return err
	}
	nCols, err := resolveFeatures("max_samples_features", f.maxSamplesFeats, len(x[0]), warn)
	if err != nil {
		return err
	}
	minSplit, err := resolveMinSplit(f.minSamplesSplit, nSamples)
	if err != nil {
		return err
	}
	splitFeats, err := resolveFeatures("max_features", f.maxFeatures, nCols, warn)
	if err != nil {
		return err
	}

	workers := f.jobs
	if workers == -1 {
		workers = runtime.NumCPU()
	}

	trainer := f.trainer
	if trainer == nil {
		trainer = tree.CART{
			MaxDepth:        f.maxDepth,
			MinSamplesSplit: minSplit,
			MaxFeatures:     splitFeats,
		}
	}

	// Draw every sub-sample and per-tree seed up front from the master
	// source, so the fitted model is identical for any worker count.
	rng := rand.New(rand.NewSource(f.seed))
	jobs := make([]treeJob, f.nEstimators)
	for i := range jobs {
		jobs[i] = treeJob{
			id:   i,
			rows: drawIndices(rng, len(x), nSamples, f.bootstrap),
			cols: drawIndices(rng, len(x[0]), nCols, f.bootstrapFeats),
			seed: rng.Int63(),
		}
	}

	candidates, err := f.growEnsemble(trainer, x, y, jobs, workers)
	if err != nil {
		return err
	}

	f.ruleSet = rules.Filter(candidates, x, y, f.precisionMin, f.recallMin)
	f.nFeatures = len(x[0])
	f.resolvedSamples = nSamples
	f.workers = workers
	f.trained = true

	return nil
}

// growEnsemble trains the trees on a worker pool and returns the
// candidate rules in tree order.
func (f *FraudRules) growEnsemble(trainer tree.Trainer, x [][]float64, y []int, jobs []treeJob, workers int) ([]rules.Rule, error) {
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([][]rules.Rule, len(jobs))
	treeErrs := make([]error, len(jobs))
	in := make(chan treeJob)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range in {
				results[job.id], treeErrs[job.id] = f.growTree(trainer, x, y, job)
			}
		}()
	}

	for _, job := range jobs {
		in <- job
	}
	close(in)
	wg.Wait()

	for _, err := range treeErrs {
		if err != nil {
			return nil, err
		}
	}

	var candidates []rules.Rule
	for _, cands := range results {
		candidates = append(candidates, cands...)
	}
	return candidates, nil
}

// growTree trains one tree on its sub-sample and converts its positive
// leaf paths into candidate rules over the original feature indices.
func (f *FraudRules) growTree(trainer tree.Trainer, x [][]float64, y []int, job treeJob) ([]rules.Rule, error) {
	subX := make([][]float64, len(job.rows))
	subY := make([]int, len(job.rows))
	for i, r := range job.rows {
		row := make([]float64, len(job.cols))
		for j, c := range job.cols {
			row[j] = x[r][c]
		}
		subX[i] = row
		subY[i] = y[r]
	}

	t, err := trainer.Train(subX, subY, job.seed)
	if err != nil {
		return nil, err
	}

	var cands []rules.Rule
	for _, path := range t.PositivePaths(f.purityMin) {
		// A split-less tree yields an empty path; that is not a rule.
		if len(path) == 0 {
			continue
		}
		for i := range path {
			path[i].Feature = job.cols[path[i].Feature]
		}
		cands = append(cands, rules.New(path))
	}
	return cands, nil
}

// DecisionFunction returns one score per row: the negated sum of the
// precisions of the rules matching the row. More negative means more
// anomalous; rows matching no rule score exactly zero.
func (f *FraudRules) DecisionFunction(x [][]float64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, ErrNotFitted
	}
	for _, row := range x {
		if len(row) != f.nFeatures {
			return nil, &ShapeError{Name: "x row", Got: len(row), Want: f.nFeatures}
		}
	}

	return f.scoreAll(x), nil
}

// Predict returns a 0/1 label per row: 1 exactly when the row's
// decision score is negative, i.e. at least one rule matches.
func (f *FraudRules) Predict(x [][]float64) ([]int, error) {
	scores, err := f.DecisionFunction(x)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(scores))
	for i, s := range scores {
		if s < 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictOne returns the decision score for a single sample.
func (f *FraudRules) PredictOne(sample []float64) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return 0, ErrNotFitted
	}
	if len(sample) != f.nFeatures {
		return 0, &ShapeError{Name: "sample", Got: len(sample), Want: f.nFeatures}
	}

	return f.scoreRow(sample), nil
}

// ScoreStream scores samples from a channel until it closes or the
// context is canceled.
func (f *FraudRules) ScoreStream(ctx context.Context, input <-chan []float64, output chan<- detectors.Score) error {
	f.mu.RLock()
	trained := f.trained
	f.mu.RUnlock()
	if !trained {
		return ErrNotFitted
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-input:
			if !ok {
				return nil
			}

			score, err := f.PredictOne(sample)
			if err != nil {
				continue
			}

			select {
			case output <- detectors.Score{
				Value:     score,
				IsAnomaly: score < 0,
				Features:  sample,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (f *FraudRules) scoreAll(x [][]float64) []float64 {
	scores := make([]float64, len(x))

	workers := f.workers
	if workers > len(x) {
		workers = len(x)
	}
	if workers <= 1 {
		for i, row := range x {
			scores[i] = f.scoreRow(row)
		}
		return scores
	}

	chunk := (len(x) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(x); start += chunk {
		end := start + chunk
		if end > len(x) {
			end = len(x)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				scores[i] = f.scoreRow(x[i])
			}
		}(start, end)
	}
	wg.Wait()

	return scores
}

func (f *FraudRules) scoreRow(row []float64) float64 {
	var sum float64
	for _, r := range f.ruleSet {
		if r.Match(row) {
			sum += r.Precision
		}
	}
	return -sum
}

// Rules returns the surviving rules, best first.
func (f *FraudRules) Rules() []rules.Rule {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]rules.Rule(nil), f.ruleSet...)
}

// RuleStrings renders the surviving rules using the configured feature
// names.
func (f *FraudRules) RuleStrings() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, len(f.ruleSet))
	for i, r := range f.ruleSet {
		out[i] = r.String(f.featureNames)
	}
	return out
}

// MaxSamples returns the resolved per-tree sample count from the last
// fit, or 0 before fitting.
func (f *FraudRules) MaxSamples() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.resolvedSamples
}

// Warnings returns the non-fatal corrections recorded by the last fit,
// such as a clipped max_samples.
func (f *FraudRules) Warnings() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.warnings...)
}

// modelState is the gob-serialized fitted state.
type modelState struct {
	Rules        []rules.Rule
	NumFeatures  int
	MaxSamples   int
	FeatureNames []string
}

// Save serializes the fitted model.
func (f *FraudRules) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, ErrNotFitted
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(modelState{
		Rules:        f.ruleSet,
		NumFeatures:  f.nFeatures,
		MaxSamples:   f.resolvedSamples,
		FeatureNames: f.featureNames,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load deserializes a fitted model.
func (f *FraudRules) Load(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var state modelState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	f.ruleSet = state.Rules
	f.nFeatures = state.NumFeatures
	f.resolvedSamples = state.MaxSamples
	f.featureNames = state.FeatureNames
	f.workers = f.jobs
	if f.workers == -1 {
		f.workers = runtime.NumCPU()
	}
	if f.workers < 1 {
		f.workers = 1
	}
	f.trained = true

	return nil
}

// validateData checks the training matrix and labels.
func validateData(x [][]float64, y []int) error {
	if len(x) == 0 {
		return &ParamError{Name: "X", Value: "0 rows", Want: "at least one training row"}
	}
	if len(y) != len(x) {
		return &ShapeError{Name: "y", Got: len(y), Want: len(x)}
	}

	width := len(x[0])
	if width == 0 {
		return &ParamError{Name: "X", Value: "0 columns", Want: "at least one feature"}
	}
	for _, row := range x {
		if len(row) != width {
			return &ShapeError{Name: "X row", Got: len(row), Want: width}
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ParamError{Name: "X", Value: v, Want: "finite values"}
			}
		}
	}
	for _, label := range y {
		if label != 0 && label != 1 {
			return &ParamError{Name: "y", Value: label, Want: "labels in {0, 1}"}
		}
	}
	return nil
}

// validateConfig checks every hyperparameter before training starts.
func (f *FraudRules) validateConfig(nFeatures int) error {
	if f.nEstimators < 1 {
		return &ParamError{Name: "n_estimators", Value: f.nEstimators, Want: "a positive count"}
	}
	if f.maxDepth < 1 {
		return &ParamError{Name: "max_depth", Value: f.maxDepth, Want: "a positive count"}
	}
	if f.precisionMin <= 0 || f.precisionMin > 1 {
		return &ParamError{Name: "precision_min", Value: f.precisionMin, Want: "a value in (0, 1]"}
	}
	if f.recallMin <= 0 || f.recallMin > 1 {
		return &ParamError{Name: "recall_min", Value: f.recallMin, Want: "a value in (0, 1]"}
	}
	if f.purityMin < 0 || f.purityMin > 1 {
		return &ParamError{Name: "purity_min", Value: f.purityMin, Want: "a value in [0, 1]"}
	}
	if f.jobs == 0 || f.jobs < -1 {
		return &ParamError{Name: "n_jobs", Value: f.jobs, Want: "-1 or a positive count"}
	}
	if f.featureNames != nil && len(f.featureNames) != nFeatures {
		return &ShapeError{Name: "feature_names", Got: len(f.featureNames), Want: nFeatures}
	}
	return nil
}

// drawIndices draws k indices out of n, with replacement when bootstrap
// is set and as a partial permutation otherwise.
func drawIndices(rng *rand.Rand, n, k int, bootstrap bool) []int {
	if bootstrap {
		out := make([]int, k)
		for i := range out {
			out[i] = rng.Intn(n)
		}
		return out
	}
	return rng.Perm(n)[:k]
}
