package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// requestNamespace scopes the deterministic request IDs of this service.
var requestNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/couchcryptid/lyon-flood-lab/scenario"))

// ParseScenarioRequest decodes a raw message into a request ID and the
// scenario state it asks for. Parameters missing from the query take their
// value from defaults. Requests without an ID get RequestID(state).
func ParseScenarioRequest(raw RawEvent, defaults ScenarioState) (string, ScenarioState, error) {
	var req ScenarioRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return "", ScenarioState{}, fmt.Errorf("parse scenario request: %w", err)
	}

	state, err := ParseQueryWithDefaults(req.Query, defaults)
	if err != nil {
		return "", ScenarioState{}, err
	}

	id := req.ID
	if id == "" {
		id = RequestID(state)
	}
	return id, state, nil
}

// RequestID derives a stable identifier from the canonical query of state,
// so replaying the same request yields the same ID.
func RequestID(state ScenarioState) string {
	return uuid.NewSHA1(requestNamespace, []byte(state.Clamped().Query())).String()
}

// NewAssessment stamps an evaluated scenario with its ID and processing time.
func NewAssessment(id string, state ScenarioState, summary Summary, roi *ROIEstimate) AssessmentEvent {
	return AssessmentEvent{
		ID:          id,
		Query:       state.Query(),
		State:       state,
		Summary:     summary,
		ROI:         roi,
		ProcessedAt: clock.Now(),
	}
}

// SerializeAssessment marshals an assessment into an output event.
func SerializeAssessment(a AssessmentEvent) (OutputEvent, error) {
	if a.ID == "" {
		return OutputEvent{}, errors.New("serialize assessment: missing id")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return OutputEvent{
		Key:   []byte(a.ID),
		Value: data,
		Headers: map[string]string{
			"seed":         strconv.FormatUint(uint64(a.State.Seed), 10),
			"level_cm":     strconv.Itoa(a.State.LevelCm),
			"processed_at": a.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
