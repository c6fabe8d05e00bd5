// Package notify publishes lifecycle outcomes for the email/notification
// pipeline. It is best-effort: the transition that triggered the event
// has already committed, so failures here are logged and absorbed.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/campusdesk/portal/internal/models"
)

type LifecycleEnvelope struct {
	RequestID   string        `json:"request_id"`
	RequesterID string        `json:"requester_id"`
	AssigneeID  string        `json:"assignee_id"`
	Status      models.Status `json:"status"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

type KafkaNotifier struct {
	writer  *kafka.Writer
	breaker *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

func NewKafkaNotifier(brokers []string, topic string, log *zap.SugaredLogger) *KafkaNotifier {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "lifecycle-notify",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	return &KafkaNotifier{writer: w, breaker: cb, log: log}
}

func (n *KafkaNotifier) LifecycleEvent(ctx context.Context, r *models.MeetingRequest) {
	env := LifecycleEnvelope{
		RequestID:   r.ID,
		RequesterID: r.RequesterID,
		AssigneeID:  r.AssigneeID,
		Status:      r.Status,
		OccurredAt:  r.UpdatedAt,
	}
	b, err := json.Marshal(env)
	if err != nil {
		n.log.Errorw("marshal lifecycle event", "err", err)
		return
	}
	_, err = n.breaker.Execute(func() (any, error) {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return nil, n.writer.WriteMessages(wctx, kafka.Message{
			Key:   []byte(r.ID),
			Value: b,
			Time:  time.Now(),
		})
	})
	if err != nil {
		n.log.Warnw("lifecycle notification dropped", "request_id", r.ID, "status", r.Status, "err", err)
	}
}

func (n *KafkaNotifier) Close() error { return n.writer.Close() }
