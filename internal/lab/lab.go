// Package lab evaluates flood scenarios over cached synthetic datasets and
// holds per-user session state.
package lab

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lru"
	"github.com/couchcryptid/lyon-flood-lab/internal/observability"
	"github.com/couchcryptid/lyon-flood-lab/internal/playback"
	"github.com/jonboulle/clockwork"
)

// Evaluation origins, used as the metrics label.
const (
	OriginHTTP     = "http"
	OriginPipeline = "pipeline"
	OriginPlayback = "playback"
	OriginCLI      = "cli"
)

// Options configures a Lab.
type Options struct {
	DefaultSeed      uint32
	DatasetCacheSize int
	PlaybackInterval time.Duration
	PlaybackStepCm   int

	// Estimator prices mitigation plans remotely. Nil means local estimates only.
	Estimator domain.ROIEstimator
	Clock     clockwork.Clock
}

// Result is one evaluated scenario.
type Result struct {
	State   domain.ScenarioState `json:"state"`
	Summary domain.Summary       `json:"summary"`
	Query   string               `json:"query"`
}

// Lab evaluates scenarios. Datasets are generated once per seed and shared
// read-only between callers.
type Lab struct {
	datasets    *lru.Cache[uint32, *domain.Dataset]
	defaultSeed uint32
	estimator   domain.ROIEstimator
	clock       clockwork.Clock
	interval    time.Duration
	sweep       playback.Sweep
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Lab. Call Warm before serving traffic.
func New(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Lab {
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	interval := opts.PlaybackInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	step := opts.PlaybackStepCm
	if step <= 0 {
		step = 10
	}

	return &Lab{
		datasets:    lru.New[uint32, *domain.Dataset](opts.DatasetCacheSize),
		defaultSeed: opts.DefaultSeed,
		estimator:   opts.Estimator,
		clock:       clk,
		interval:    interval,
		sweep:       playback.Sweep{Min: domain.MinLevelCm, Max: domain.MaxLevelCm, Step: step},
		logger:      logger,
		metrics:     metrics,
	}
}

// Warm generates the default dataset and marks the lab ready.
func (l *Lab) Warm() {
	ds := l.Dataset(l.defaultSeed)
	l.ready.Store(true)
	l.logger.Info("default dataset ready",
		"seed", ds.Seed(),
		"buildings", ds.Len(),
		"critical", ds.CriticalCount(),
	)
}

// CheckReadiness returns nil once the default dataset has been generated.
func (l *Lab) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("default dataset has not been generated yet")
	}
	return nil
}

// DefaultState is the state used when a request carries no parameters.
func (l *Lab) DefaultState() domain.ScenarioState {
	s := domain.DefaultState()
	s.Seed = l.defaultSeed
	return s
}

// Decode reads query parameters, defaulting the seed to the lab's default
// seed rather than the package constant.
func (l *Lab) Decode(query string) (domain.ScenarioState, error) {
	return domain.ParseQueryWithDefaults(query, l.DefaultState())
}

// Dataset returns the dataset for seed, generating it on first use.
func (l *Lab) Dataset(seed uint32) *domain.Dataset {
	ds, hit := l.datasets.GetOrAdd(seed, func() *domain.Dataset {
		return domain.NewDataset(seed)
	})
	if hit {
		l.metrics.DatasetCache.WithLabelValues("hit").Inc()
	} else {
		l.metrics.DatasetCache.WithLabelValues("miss").Inc()
	}
	return ds
}

// Evaluate runs a full assessment of state. origin labels the metrics.
func (l *Lab) Evaluate(state domain.ScenarioState, origin string) Result {
	state = state.Clamped()
	ds := l.Dataset(state.Seed)

	start := time.Now()
	summary := domain.Assess(ds, state)
	l.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	l.metrics.ScenarioEvaluations.WithLabelValues(origin).Inc()

	return Result{State: state, Summary: summary, Query: state.Query()}
}

// Impacts returns the buildings of the state's dataset with their per-building outcome.
func (l *Lab) Impacts(state domain.ScenarioState) ([]domain.Building, []domain.Impact) {
	state = state.Clamped()
	ds := l.Dataset(state.Seed)
	return ds.Buildings(), domain.Impacts(ds, state)
}

// EstimateROI prices the mitigation measures of state against the
// unmitigated baseline at the same level. It always returns an estimate.
func (l *Lab) EstimateROI(ctx context.Context, state domain.ScenarioState, origin string) domain.ROIEstimate {
	baselineState := state
	baselineState.Mitigation = domain.Mitigation{}

	baseline := l.Evaluate(baselineState, origin)
	mitigated := l.Evaluate(state, origin)

	est := domain.ResolveROI(ctx, l.estimator, domain.ROIRequest{
		State:           mitigated.State,
		BaselineDamage:  baseline.Summary.TotalDamage,
		MitigatedDamage: mitigated.Summary.TotalDamage,
	}, l.logger)
	l.metrics.ROIRequests.WithLabelValues(est.Source).Inc()
	return est
}

// SweepFrames is the number of distinct levels one autoplay cycle visits
// before wrapping back to the minimum.
func (l *Lab) SweepFrames() int {
	return (l.sweep.Max-l.sweep.Min)/l.sweep.Step + 1
}

// Advance moves state one autoplay step up the sweep and evaluates it.
func (l *Lab) Advance(state domain.ScenarioState) Result {
	state = state.Clamped()
	state.LevelCm = l.sweep.Next(state.LevelCm)
	return l.Evaluate(state, OriginPlayback)
}

// Autoplay sweeps the water level from start, evaluating each step and
// passing the result to onFrame. onFrame returning false ends the sweep.
func (l *Lab) Autoplay(ctx context.Context, start domain.ScenarioState, onFrame func(Result) bool) *playback.Task {
	state := start.Clamped()
	return l.play(ctx, func() bool {
		r := l.Advance(state)
		state = r.State
		return onFrame(r)
	})
}

// play runs tick on the playback interval and tracks it in the active gauge.
func (l *Lab) play(ctx context.Context, tick func() bool) *playback.Task {
	l.metrics.PlaybackActive.Inc()

	task := playback.Start(ctx, l.clock, l.interval, func(_ context.Context, _ int) bool {
		return tick()
	})

	go func() {
		<-task.Done()
		l.metrics.PlaybackActive.Dec()
	}()
	return task
}
