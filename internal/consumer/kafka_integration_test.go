//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap/zaptest"

	"example.com/activityregistry/internal/domain"
	"example.com/activityregistry/internal/events"
	"example.com/activityregistry/internal/outbox"
	"example.com/activityregistry/internal/registry"
)

type collectingHandler struct {
	mu     sync.Mutex
	events []events.RosterChanged
	audit  *RosterAuditHandler
}

func (h *collectingHandler) Handle(ctx context.Context, msg Message) error {
	if err := h.audit.Handle(ctx, msg); err != nil {
		return err
	}
	var evt events.RosterChanged
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	return nil
}

func (h *collectingHandler) snapshot() []events.RosterChanged {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.RosterChanged(nil), h.events...)
}

func TestRosterEventsRoundTripThroughKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.RunContainer(ctx, testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	topic := "activity_roster_events"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))

	log := zaptest.NewLogger(t)
	producer := outbox.NewKafkaProducer(brokers)
	defer producer.Close()
	dispatcher := outbox.NewDispatcher(producer, outbox.Config{
		Topic:         topic,
		BufferSize:    16,
		BatchSize:     2,
		FlushInterval: 50 * time.Millisecond,
	}, log)

	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	go dispatcher.Start(dispatchCtx)

	reg, err := registry.NewDefault()
	require.NoError(t, err)
	service := domain.NewService(reg, dispatcher, log)

	_, err = service.SignUp(ctx, "Chess Club", "new@student.com")
	require.NoError(t, err)
	_, err = service.Unregister(ctx, "Chess Club", "michael@mergington.edu")
	require.NoError(t, err)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     "roster-audit-integration",
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	handler := &collectingHandler{audit: NewRosterAuditHandler(log)}
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() {
		_ = NewProcessor(reader, handler, WithLogger(log)).Run(consumerCtx)
	}()

	require.Eventually(t, func() bool { return len(handler.snapshot()) == 2 }, 60*time.Second, 250*time.Millisecond)

	got := handler.snapshot()
	require.Equal(t, events.EventParticipantRegistered, got[0].EventType)
	require.Equal(t, "new@student.com", got[0].Email)
	require.Equal(t, 3, got[0].ParticipantCount)
	require.Equal(t, events.EventParticipantUnregistered, got[1].EventType)
	require.Equal(t, 2, got[1].ParticipantCount)

	stopDispatch()
	dispatcher.Wait()
}
