// Package events defines the roster event payloads shared by the API and the audit consumer.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried in the event_type field and Kafka header.
const (
	EventParticipantRegistered   = "participant.registered"
	EventParticipantUnregistered = "participant.unregistered"
)

// RosterChanged is emitted after a successful sign-up or unregister.
type RosterChanged struct {
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	Activity         string    `json:"activity"`
	Email            string    `json:"email"`
	ParticipantCount int       `json:"participant_count"`
	MaxParticipants  int       `json:"max_participants"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewRosterChanged stamps a fresh event id onto the payload.
func NewRosterChanged(eventType, activity, email string, count, maxParticipants int, at time.Time) RosterChanged {
	return RosterChanged{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		Activity:         activity,
		Email:            email,
		ParticipantCount: count,
		MaxParticipants:  maxParticipants,
		OccurredAt:       at,
	}
}
