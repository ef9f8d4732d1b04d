package repository

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeSucceeded  Outcome = "succeeded"
	OutcomeFailed     Outcome = "failed"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeSuperseded Outcome = "superseded"
)

// Record is the persisted outcome of one range request.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	Lower     int64     `json:"lower"`
	Upper     int64     `json:"upper"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	Bytes     int64     `json:"bytes"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// Duration is the time between start and termination.
func (r *Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}

	return r.EndedAt.Sub(r.StartedAt)
}
