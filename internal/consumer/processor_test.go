package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/activityregistry/internal/events"
)

func TestProcessorCommitsMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := json.RawMessage(`{"example":true}`)
	msg := kafka.Message{
		Topic:     "activity_roster_events",
		Partition: 0,
		Offset:    12,
		Value:     payload,
		Time:      time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.EventParticipantRegistered)},
		},
	}

	reader := &stubReader{msgs: []kafka.Message{msg}, errAfter: context.Canceled}
	handler := &RecordingHandler{}
	proc := NewProcessor(reader, handler, WithLogger(zaptest.NewLogger(t)))

	before := testutil.ToFloat64(processedCounter.WithLabelValues(events.EventParticipantRegistered))
	err := proc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.count)
	require.Equal(t, 1, reader.commitCount)
	require.Equal(t, events.EventParticipantRegistered, handler.last.Headers["event_type"])
	require.JSONEq(t, string(payload), string(handler.last.Payload))
	require.Equal(t, before+1, testutil.ToFloat64(processedCounter.WithLabelValues(events.EventParticipantRegistered)))
}

func TestProcessorCommitsAfterHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{msgs: []kafka.Message{{Topic: "t", Offset: 1}}, errAfter: context.Canceled}
	handler := &RecordingHandler{err: errors.New("boom")}
	proc := NewProcessor(reader, handler, WithLogger(zaptest.NewLogger(t)))

	err := proc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.count)
	require.Equal(t, 1, reader.commitCount)
}

func TestProcessorRetriesFetchErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{
		fetchErrs: []error{errors.New("broker unavailable")},
		msgs:      []kafka.Message{{Topic: "t", Offset: 2}},
		errAfter:  context.Canceled,
	}
	handler := &RecordingHandler{}
	proc := NewProcessor(reader, handler, WithRetryDelay(time.Millisecond))

	err := proc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.count)
}

func TestProcessorStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := NewProcessor(&stubReader{}, &RecordingHandler{})
	require.ErrorIs(t, proc.Run(ctx), context.Canceled)
}

type stubReader struct {
	fetchErrs   []error
	msgs        []kafka.Message
	idx         int
	commitCount int
	errAfter    error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if r.idx >= len(r.msgs) {
		return kafka.Message{}, r.errAfter
	}
	msg := r.msgs[r.idx]
	r.idx++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCount++
	return nil
}

func (r *stubReader) Close() error { return nil }

type RecordingHandler struct {
	count int
	last  Message
	err   error
}

var _ Handler = (*RecordingHandler)(nil)

func (h *RecordingHandler) Handle(_ context.Context, msg Message) error {
	h.count++
	h.last = msg
	return h.err
}
