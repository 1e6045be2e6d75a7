package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ScenarioRequest is the payload of a batch evaluation request. Query uses
// the same encoding as the shareable URL state.
type ScenarioRequest struct {
	ID    string `json:"id,omitempty"`
	Query string `json:"query"`
}

// AssessmentEvent is the evaluated scenario published to the sink topic.
type AssessmentEvent struct {
	ID          string        `json:"id"`
	Query       string        `json:"query"`
	State       ScenarioState `json:"state"`
	Summary     Summary       `json:"summary"`
	ROI         *ROIEstimate  `json:"roi,omitempty"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
