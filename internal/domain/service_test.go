package domain_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/activityregistry/internal/domain"
	"example.com/activityregistry/internal/events"
	"example.com/activityregistry/internal/registry"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RosterChanged
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.RosterChanged) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func newService(t *testing.T) (*domain.Service, *recordingPublisher) {
	t.Helper()
	reg, err := registry.NewDefault()
	require.NoError(t, err)
	pub := &recordingPublisher{}
	return domain.NewService(reg, pub, zaptest.NewLogger(t)), pub
}

func TestSignUpConfirmsAndPublishes(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	conf, err := svc.SignUp(ctx, "Chess Club", "new@student.com")
	require.NoError(t, err)
	require.Equal(t, "Signed up new@student.com for Chess Club", conf.Message)
	require.Equal(t, "Chess Club", conf.Activity)
	require.Equal(t, "new@student.com", conf.Email)

	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	require.Equal(t, events.EventParticipantRegistered, evt.EventType)
	require.Equal(t, "Chess Club", evt.Activity)
	require.Equal(t, 3, evt.ParticipantCount)
	require.Equal(t, 12, evt.MaxParticipants)
	require.NotEmpty(t, evt.EventID)
	require.False(t, evt.OccurredAt.IsZero())

	activities, err := svc.ListActivities(ctx)
	require.NoError(t, err)
	for _, a := range activities {
		if a.Name == "Chess Club" {
			require.True(t, a.HasParticipant("new@student.com"))
		}
	}
}

func TestUnregisterConfirmsAndPublishes(t *testing.T) {
	svc, pub := newService(t)

	conf, err := svc.Unregister(context.Background(), "Chess Club", "michael@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, "Unregistered michael@mergington.edu from Chess Club", conf.Message)

	require.Len(t, pub.events, 1)
	require.Equal(t, events.EventParticipantUnregistered, pub.events[0].EventType)
	require.Equal(t, 1, pub.events[0].ParticipantCount)
}

func TestFailuresWrapSentinelsAndPublishNothing(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Nonexistent", "someone@mergington.edu")
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	_, err = svc.SignUp(ctx, "Chess Club", "michael@mergington.edu")
	require.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	require.Contains(t, err.Error(), "already signed up")

	_, err = svc.Unregister(ctx, "Chess Club", "not@there.com")
	require.ErrorIs(t, err, domain.ErrNotRegistered)

	_, err = svc.Unregister(ctx, "Invalid", "someone@mergington.edu")
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	require.Empty(t, pub.events)
}

func TestNilPublisherDefaultsToNoop(t *testing.T) {
	reg, err := registry.NewDefault()
	require.NoError(t, err)
	svc := domain.NewService(reg, nil, nil)

	_, err = svc.SignUp(context.Background(), "Art Club", "new@student.com")
	require.NoError(t, err)
}

func TestActivityClone(t *testing.T) {
	a := domain.Activity{Name: "A", Participants: []string{"x@y.z"}}
	b := a.Clone()
	b.Participants[0] = "changed"
	require.Equal(t, "x@y.z", a.Participants[0])

	empty := domain.Activity{Name: "B"}.Clone()
	require.NotNil(t, empty.Participants)
}
