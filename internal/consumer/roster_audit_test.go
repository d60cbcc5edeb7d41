package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/activityregistry/internal/events"
)

func TestRosterAuditHandlerTracksCount(t *testing.T) {
	h := NewRosterAuditHandler(zaptest.NewLogger(t))
	evt := events.NewRosterChanged(events.EventParticipantRegistered, "Audit Club", "new@student.com", 4, 12, time.Now().UTC())
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), Message{Payload: payload}))
	require.Equal(t, float64(4), testutil.ToFloat64(rosterGauge.WithLabelValues("Audit Club")))
}

func TestRosterAuditHandlerRejectsBadPayloads(t *testing.T) {
	h := NewRosterAuditHandler(nil)
	before := testutil.ToFloat64(rejectedCounter)

	cases := []string{
		`not json`,
		`{"event_type":"participant.registered","activity":""}`,
		`{"event_type":"participant.renamed","activity":"Chess Club"}`,
	}
	for _, raw := range cases {
		require.Error(t, h.Handle(context.Background(), Message{Payload: json.RawMessage(raw)}), raw)
	}
	require.Equal(t, before+float64(len(cases)), testutil.ToFloat64(rejectedCounter))
}
