package domain

import (
	"context"
	"log/slog"
	"math"
)

// Capital cost of each mitigation measure, in euros.
const (
	GreenRoofCost         = 4_000_000
	PermeablePavementCost = 2_500_000
	BarrierCost           = 6_000_000

	// ExpectedEvents is how many floods of the assessed level are expected
	// over the investment horizon.
	ExpectedEvents = 1.5
)

// Estimate sources.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// ROIRequest carries what an estimator needs to price a mitigation plan.
type ROIRequest struct {
	State           ScenarioState `json:"state"`
	BaselineDamage  float64       `json:"baseline_damage"`
	MitigatedDamage float64       `json:"mitigated_damage"`
}

// ROIEstimate is the return on investment of the enabled mitigation measures.
type ROIEstimate struct {
	AvoidedDamage  float64 `json:"avoided_damage"`
	InvestmentCost float64 `json:"investment_cost"`
	Benefit        float64 `json:"benefit"`
	ROI            float64 `json:"roi"`
	Source         string  `json:"source"` // "remote" or "local"
}

// ROIEstimator prices mitigation plans, typically through a remote service.
type ROIEstimator interface {
	EstimateROI(ctx context.Context, req ROIRequest) (ROIEstimate, error)
}

// InvestmentCost returns the capital cost of the enabled measures.
func InvestmentCost(m Mitigation) float64 {
	var cost float64
	if m.GreenRoofs {
		cost += GreenRoofCost
	}
	if m.PermeablePavement {
		cost += PermeablePavementCost
	}
	if m.Barriers {
		cost += BarrierCost
	}
	return cost
}

// LocalROI computes the formula-based estimate used when no remote result is available.
func LocalROI(req ROIRequest) ROIEstimate {
	avoided := math.Max(0, req.BaselineDamage-req.MitigatedDamage)
	cost := InvestmentCost(req.State.Mitigation)
	benefit := avoided * ExpectedEvents

	est := ROIEstimate{
		AvoidedDamage:  avoided,
		InvestmentCost: cost,
		Benefit:        benefit,
		Source:         SourceLocal,
	}
	if cost > 0 {
		est.ROI = (benefit - cost) / cost
	}
	return est
}

// ResolveROI asks the estimator for an estimate and falls back to LocalROI
// when the estimator is nil, fails, or returns an unusable result.
func ResolveROI(ctx context.Context, estimator ROIEstimator, req ROIRequest, logger *slog.Logger) ROIEstimate {
	if estimator == nil {
		return LocalROI(req)
	}

	est, err := estimator.EstimateROI(ctx, req)
	if err != nil {
		logger.Warn("roi estimation failed, using local estimate",
			"query", req.State.Query(),
			"error", err,
		)
		return LocalROI(req)
	}
	if !validEstimate(est) {
		logger.Warn("roi estimation returned unusable result, using local estimate",
			"query", req.State.Query(),
			"roi", est.ROI,
		)
		return LocalROI(req)
	}

	est.Source = SourceRemote
	return est
}

func validEstimate(est ROIEstimate) bool {
	for _, v := range []float64{est.AvoidedDamage, est.InvestmentCost, est.Benefit, est.ROI} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return est.InvestmentCost >= 0
}
