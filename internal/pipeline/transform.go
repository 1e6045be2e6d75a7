package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lab"
)

// ScenarioTransformer implements Transformer by evaluating each request
// against the lab, adding an ROI estimate when mitigation is enabled.
type ScenarioTransformer struct {
	lab    *lab.Lab
	logger *slog.Logger
}

// NewTransformer creates a ScenarioTransformer over l.
func NewTransformer(l *lab.Lab, logger *slog.Logger) *ScenarioTransformer {
	return &ScenarioTransformer{
		lab:    l,
		logger: logger,
	}
}

func (t *ScenarioTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	id, state, err := domain.ParseScenarioRequest(raw, t.lab.DefaultState())
	if err != nil {
		return domain.OutputEvent{}, err
	}

	res := t.lab.Evaluate(state, lab.OriginPipeline)

	var roi *domain.ROIEstimate
	if res.State.Mitigation.Any() {
		est := t.lab.EstimateROI(ctx, res.State, lab.OriginPipeline)
		roi = &est
	}

	return domain.SerializeAssessment(domain.NewAssessment(id, res.State, res.Summary, roi))
}
