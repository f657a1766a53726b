package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeFindingScored = "finding.scored"
	TypeFindingFailed = "finding.failed"
)

// Envelope defines the standard wrapper for outbound Kafka events.
type Envelope struct {
	Type        string      `json:"type"`
	Version     int         `json:"version"`
	ID          string      `json:"id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	ProjectName string      `json:"project_name,omitempty"`
	Data        interface{} `json:"data"`
}

// NewEnvelope builds a versioned envelope for the provided event data.
func NewEnvelope(eventType string, projectName string, data interface{}) Envelope {
	return Envelope{
		Type:        eventType,
		Version:     1,
		ID:          uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		ProjectName: projectName,
		Data:        data,
	}
}
