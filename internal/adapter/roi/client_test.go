package roi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testRequest() domain.ROIRequest {
	return domain.ROIRequest{
		State: domain.ScenarioState{
			LevelCm:    120,
			Mitigation: domain.Mitigation{Barriers: true},
			Seed:       1337,
		},
		BaselineDamage:  32_438_230.88,
		MitigatedDamage: 26_043_975.37,
	}
}

func TestClient_EstimateROI_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/roi", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var got request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "gr=0&level=120&pp=0&seed=1337&tb=1", got.Query)
		assert.Equal(t, 120, got.LevelCm)
		assert.True(t, got.Mitigation.Barriers)
		assert.Equal(t, uint32(1337), got.Seed)

		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{
			AvoidedDamage:  6_394_255.51,
			InvestmentCost: 6_000_000,
			Benefit:        9_591_383.27,
			ROI:            0.6,
		}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	est, err := c.EstimateROI(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.SourceRemote, est.Source)
	assert.Equal(t, 0.6, est.ROI)
	assert.Equal(t, 6_000_000.0, est.InvestmentCost)
	assert.Equal(t, 1, testutil.CollectAndCount(c.metrics.ROIAPIDuration))
}

func TestClient_EstimateROI_TrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/roi", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"roi":1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, 0, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	est, err := c.EstimateROI(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.ROI)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ROIEnabled))
}

func TestClient_EstimateROI_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"warming up"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).EstimateROI(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_EstimateROI_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).EstimateROI(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_EstimateROI_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.EstimateROI(context.Background(), testRequest())
	require.Error(t, err)
}

func TestClient_EstimateROI_RateLimited(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"roi":1}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := c.EstimateROI(context.Background(), testRequest())
	require.NoError(t, err)

	_, err = c.EstimateROI(context.Background(), testRequest())
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestClient_FallsBackThroughResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	req := testRequest()
	est := domain.ResolveROI(context.Background(), testClient(srv.URL), req, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, domain.SourceLocal, est.Source)
	assert.Equal(t, domain.LocalROI(req), est)
}
