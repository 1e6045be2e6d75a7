// Package roi is a client for the local ROI estimation service.
package roi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/observability"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a request would exceed the client's rate limit.
var ErrRateLimited = errors.New("roi service rate limit exceeded")

// Client implements domain.ROIEstimator over the estimation service's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an ROI client. ratePerSecond bounds outgoing requests;
// a non-positive value disables limiting.
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limit := rate.Inf
	burst := 0
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = max(1, int(ratePerSecond))
	}
	metrics.ROIEnabled.Set(1)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    metrics,
		logger:     logger,
	}
}

// EstimateROI posts the request to {baseURL}/roi. It fails fast instead of
// waiting when the rate limit is exhausted, so callers can fall back.
func (c *Client) EstimateROI(ctx context.Context, req domain.ROIRequest) (domain.ROIEstimate, error) {
	if !c.limiter.Allow() {
		return domain.ROIEstimate{}, ErrRateLimited
	}

	body, err := json.Marshal(request{
		Query:           req.State.Query(),
		LevelCm:         req.State.LevelCm,
		Mitigation:      req.State.Mitigation,
		Seed:            req.State.Seed,
		BaselineDamage:  req.BaselineDamage,
		MitigatedDamage: req.MitigatedDamage,
	})
	if err != nil {
		return domain.ROIEstimate{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/roi", bytes.NewReader(body))
	if err != nil {
		return domain.ROIEstimate{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.ROIAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.ROIEstimate{}, fmt.Errorf("roi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ROIEstimate{}, fmt.Errorf("roi service error: status %d: %s", resp.StatusCode, msg)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ROIEstimate{}, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("roi estimate received", "query", req.State.Query(), "roi", out.ROI)
	return domain.ROIEstimate{
		AvoidedDamage:  out.AvoidedDamage,
		InvestmentCost: out.InvestmentCost,
		Benefit:        out.Benefit,
		ROI:            out.ROI,
		Source:         domain.SourceRemote,
	}, nil
}

// ROI service wire types.

type request struct {
	Query           string            `json:"query"`
	LevelCm         int               `json:"level_cm"`
	Mitigation      domain.Mitigation `json:"mitigation"`
	Seed            uint32            `json:"seed"`
	BaselineDamage  float64           `json:"baseline_damage"`
	MitigatedDamage float64           `json:"mitigated_damage"`
}

type response struct {
	AvoidedDamage  float64 `json:"avoided_damage"`
	InvestmentCost float64 `json:"investment_cost"`
	Benefit        float64 `json:"benefit"`
	ROI            float64 `json:"roi"`
}
