// Package domain defines the business logic for the activity registry.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"example.com/activityregistry/internal/events"
	"example.com/activityregistry/internal/logger"
	"example.com/activityregistry/internal/observability"
	"example.com/activityregistry/internal/outbox"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered is returned when the email is already on the roster.
	ErrAlreadyRegistered = errors.New("student is already signed up")
	// ErrNotRegistered is returned when the email is not on the roster.
	ErrNotRegistered = errors.New("student is not signed up for this activity")
)

// Registry captures roster storage. AddParticipant and RemoveParticipant must
// perform the existence check and the mutation as one atomic step and leave
// state untouched when they fail.
type Registry interface {
	List(ctx context.Context) ([]Activity, error)
	AddParticipant(ctx context.Context, name, email string) (Activity, error)
	RemoveParticipant(ctx context.Context, name, email string) (Activity, error)
}

// Confirmation acknowledges a roster change.
type Confirmation struct {
	Activity string
	Email    string
	Message  string
}

// Service orchestrates roster workflows.
type Service struct {
	registry  Registry
	publisher outbox.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a Service. A nil publisher disables roster events.
func NewService(registry Registry, publisher outbox.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = outbox.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		registry:  registry,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListActivities returns every activity with its current roster.
func (s *Service) ListActivities(ctx context.Context) ([]Activity, error) {
	return s.registry.List(ctx)
}

// SignUp adds email to the named activity.
func (s *Service) SignUp(ctx context.Context, name, email string) (Confirmation, error) {
	activity, err := s.registry.AddParticipant(ctx, name, email)
	if err != nil {
		return Confirmation{}, fmt.Errorf("sign up for %q: %w", name, err)
	}

	s.recordChange(ctx, events.EventParticipantRegistered, activity, email)
	return Confirmation{
		Activity: name,
		Email:    email,
		Message:  fmt.Sprintf("Signed up %s for %s", email, name),
	}, nil
}

// Unregister removes email from the named activity.
func (s *Service) Unregister(ctx context.Context, name, email string) (Confirmation, error) {
	activity, err := s.registry.RemoveParticipant(ctx, name, email)
	if err != nil {
		return Confirmation{}, fmt.Errorf("unregister from %q: %w", name, err)
	}

	s.recordChange(ctx, events.EventParticipantUnregistered, activity, email)
	return Confirmation{
		Activity: name,
		Email:    email,
		Message:  fmt.Sprintf("Unregistered %s from %s", email, name),
	}, nil
}

func (s *Service) recordChange(ctx context.Context, eventType string, activity Activity, email string) {
	count := len(activity.Participants)
	observability.RecordRosterChange(activity.Name, eventType, count)

	s.logger.Info("roster changed",
		zap.String("event_type", eventType),
		zap.String("activity", activity.Name),
		logger.Email("email", email),
		zap.Int("participant_count", count),
	)

	evt := events.NewRosterChanged(eventType, activity.Name, email, count, activity.MaxParticipants, s.now())
	s.publisher.Publish(ctx, evt)
}
