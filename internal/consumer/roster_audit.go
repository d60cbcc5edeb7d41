package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"example.com/activityregistry/internal/events"
	"example.com/activityregistry/internal/logger"
)

// RosterAuditHandler logs roster events and tracks the reported roster sizes.
type RosterAuditHandler struct {
	logger *zap.Logger
}

var _ Handler = (*RosterAuditHandler)(nil)

// NewRosterAuditHandler constructs the handler.
func NewRosterAuditHandler(log *zap.Logger) *RosterAuditHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RosterAuditHandler{logger: log}
}

// Handle decodes a RosterChanged payload.
func (h *RosterAuditHandler) Handle(_ context.Context, msg Message) error {
	var evt events.RosterChanged
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		rejectedCounter.Inc()
		return fmt.Errorf("decode roster event: %w", err)
	}
	if strings.TrimSpace(evt.Activity) == "" {
		rejectedCounter.Inc()
		return fmt.Errorf("roster event %s: missing activity", evt.EventID)
	}
	switch evt.EventType {
	case events.EventParticipantRegistered, events.EventParticipantUnregistered:
	default:
		rejectedCounter.Inc()
		return fmt.Errorf("roster event %s: unknown event type %q", evt.EventID, evt.EventType)
	}

	rosterGauge.WithLabelValues(evt.Activity).Set(float64(evt.ParticipantCount))
	h.logger.Info("roster event",
		zap.String("event_id", evt.EventID),
		zap.String("event_type", evt.EventType),
		zap.String("activity", evt.Activity),
		logger.Email("email", evt.Email),
		zap.Int("participant_count", evt.ParticipantCount),
		zap.Int("max_participants", evt.MaxParticipants),
		zap.Time("occurred_at", evt.OccurredAt),
	)
	return nil
}
