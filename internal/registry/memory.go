// Package registry holds the process-wide activity catalog in memory.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"example.com/activityregistry/internal/domain"
)

// InMemoryRegistry stores activities keyed by name.
type InMemoryRegistry struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
}

var _ domain.Registry = (*InMemoryRegistry)(nil)

// New builds a registry from seed activities.
func New(seed []domain.Activity) (*InMemoryRegistry, error) {
	if err := validateSeed(seed); err != nil {
		return nil, err
	}
	r := &InMemoryRegistry{activities: make(map[string]domain.Activity, len(seed))}
	for _, activity := range seed {
		r.activities[activity.Name] = activity.Clone()
	}
	return r, nil
}

// NewDefault builds a registry from the embedded school catalog.
func NewDefault() (*InMemoryRegistry, error) {
	seed, err := DefaultSeed()
	if err != nil {
		return nil, err
	}
	return New(seed)
}

// List returns copies of all activities ordered by name.
func (r *InMemoryRegistry) List(ctx context.Context) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Activity, 0, len(r.activities))
	for _, activity := range r.activities {
		out = append(out, activity.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a copy of the named activity.
func (r *InMemoryRegistry) Get(ctx context.Context, name string) (domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	return activity.Clone(), nil
}

// AddParticipant appends email to the roster. Capacity is not checked.
func (r *InMemoryRegistry) AddParticipant(ctx context.Context, name, email string) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	if activity.HasParticipant(email) {
		return domain.Activity{}, domain.ErrAlreadyRegistered
	}

	activity.Participants = append(slices.Clip(activity.Participants), email)
	r.activities[name] = activity
	return activity.Clone(), nil
}

// RemoveParticipant deletes email from the roster, keeping the order of the rest.
func (r *InMemoryRegistry) RemoveParticipant(ctx context.Context, name, email string) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	idx := slices.Index(activity.Participants, email)
	if idx < 0 {
		return domain.Activity{}, domain.ErrNotRegistered
	}

	activity.Participants = slices.Delete(slices.Clone(activity.Participants), idx, idx+1)
	r.activities[name] = activity
	return activity.Clone(), nil
}

// Snapshot returns a deep copy of the current state.
func (r *InMemoryRegistry) Snapshot() map[string]domain.Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Activity, len(r.activities))
	for name, activity := range r.activities {
		out[name] = activity.Clone()
	}
	return out
}

// Restore replaces the current state with a snapshot.
func (r *InMemoryRegistry) Restore(snapshot map[string]domain.Activity) {
	state := make(map[string]domain.Activity, len(snapshot))
	for name, activity := range snapshot {
		activity = activity.Clone()
		activity.Name = name
		state[name] = activity
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = state
}

func validateSeed(seed []domain.Activity) error {
	seen := make(map[string]struct{}, len(seed))
	for i, activity := range seed {
		if strings.TrimSpace(activity.Name) == "" {
			return fmt.Errorf("seed activity %d: name is required", i)
		}
		if _, dup := seen[activity.Name]; dup {
			return fmt.Errorf("seed activity %q: duplicate name", activity.Name)
		}
		seen[activity.Name] = struct{}{}
		if activity.MaxParticipants <= 0 {
			return fmt.Errorf("seed activity %q: max_participants must be > 0", activity.Name)
		}
		emails := make(map[string]struct{}, len(activity.Participants))
		for _, email := range activity.Participants {
			if _, dup := emails[email]; dup {
				return fmt.Errorf("seed activity %q: duplicate participant %q", activity.Name, email)
			}
			emails[email] = struct{}{}
		}
	}
	return nil
}
