package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lab"
	"github.com/couchcryptid/lyon-flood-lab/internal/observability"
	"github.com/couchcryptid/lyon-flood-lab/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	events []domain.RawEvent
	served atomic.Bool
	err    error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.served.CompareAndSwap(false, true) && len(m.events) > 0 {
		return m.events[:min(batchSize, len(m.events))], nil
	}
	// block until context cancelled to simulate waiting for messages
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputEvent
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLab() *lab.Lab {
	return lab.New(lab.Options{DefaultSeed: domain.DefaultSeed, DatasetCacheSize: 4}, discardLogger(), observability.NewMetricsForTesting())
}

func makeRawEvent(t *testing.T, id, query string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.ScenarioRequest{ID: id, Query: query})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "req-1", "level=120")

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	require.NoError(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.CheckReadiness(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformError(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawEvent(t, "req-2", "level=120")
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad data")}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.Equal(t, int32(1), commits.Load(), "rejected requests are committed so they are not redelivered")
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int32
	events := make([]domain.RawEvent, 3)
	for i := range events {
		events[i] = makeRawEvent(t, "req", "level=60")
		events[i].Commit = func(_ context.Context) error {
			commits.Add(1)
			return nil
		}
	}

	p := pipeline.New(&mockExtractor{events: events}, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, int32(3), commits.Load())
}

func TestPipeline_Run_LoadErrorSkipsCommit(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawEvent(t, "req-3", "level=60")
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ldr := &mockLoader{err: errors.New("broker unavailable")}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, commits.Load())
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("connection refused")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, p.Run(ctx))
	assert.Less(t, time.Since(start), time.Second, "backoff sleep must honour cancellation")
}

// --- transformer tests ---

func TestScenarioTransformer_Transform(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	tfm := pipeline.NewTransformer(newTestLab(), discardLogger())

	out, err := tfm.Transform(context.Background(), makeRawEvent(t, "req-4", "level=180&gr=1&tb=1&seed=42"))
	require.NoError(t, err)
	assert.Equal(t, []byte("req-4"), out.Key)
	assert.Equal(t, "42", out.Headers["seed"])
	assert.Equal(t, "180", out.Headers["level_cm"])

	var got domain.AssessmentEvent
	require.NoError(t, json.Unmarshal(out.Value, &got))

	want := domain.AssessmentEvent{
		ID:    "req-4",
		Query: "gr=1&level=180&pp=0&seed=42&tb=1",
		State: domain.ScenarioState{
			LevelCm:    180,
			Mitigation: domain.Mitigation{GreenRoofs: true, Barriers: true},
			Seed:       42,
		},
		Summary: domain.Summary{
			TotalDamage:      42845553.155201696,
			Affected:         188,
			CriticalAffected: 13,
			Buildings:        domain.BuildingCount,
		},
		ProcessedAt: fixed,
	}
	opts := cmp.Options{
		cmpopts.EquateApprox(0, 1e-3),
		cmpopts.IgnoreFields(domain.AssessmentEvent{}, "ROI"),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Fatalf("assessment mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, got.ROI)
	assert.Equal(t, domain.SourceLocal, got.ROI.Source)
	assert.Equal(t, 10_000_000.0, got.ROI.InvestmentCost)
}

func TestScenarioTransformer_NoMitigationOmitsROI(t *testing.T) {
	tfm := pipeline.NewTransformer(newTestLab(), discardLogger())

	out, err := tfm.Transform(context.Background(), makeRawEvent(t, "", "level=120"))
	require.NoError(t, err)

	var got domain.AssessmentEvent
	require.NoError(t, json.Unmarshal(out.Value, &got))
	assert.Nil(t, got.ROI)
	assert.Equal(t, domain.RequestID(got.State), got.ID)
	assert.Equal(t, 162, got.Summary.Affected)
}

func TestScenarioTransformer_InvalidRequest(t *testing.T) {
	tfm := pipeline.NewTransformer(newTestLab(), discardLogger())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario request")
}
