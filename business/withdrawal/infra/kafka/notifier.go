// Package kafka publishes withdrawal outcome notifications to the user
// notification topic.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// Config holds the notifier settings.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// Notifier implements the withdrawal notification port on a Kafka topic.
// Messages are keyed by user id so one user's notifications stay ordered.
type Notifier struct {
	writer *kafka.Writer
	log    logger.LoggerInterface
}

func NewNotifier(cfg Config, log logger.LoggerInterface) *Notifier {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: writer, log: log}
}

// Close flushes and closes the underlying writer.
func (n *Notifier) Close() error {
	return n.writer.Close()
}

// event is the notification envelope consumed by the platform's
// notification service.
type event struct {
	// EventID lets consumers deduplicate redeliveries.
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	UserID       int64     `json:"user_id"`
	WithdrawalID int64     `json:"withdrawal_id"`
	Reason       string    `json:"reason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// WithdrawalCompleted notifies a user that their withdrawal was delivered.
func (n *Notifier) WithdrawalCompleted(ctx context.Context, userID, withdrawalID int64) error {
	return n.publish(ctx, event{
		EventType:    "withdrawal_completed",
		UserID:       userID,
		WithdrawalID: withdrawalID,
		Timestamp:    time.Now().UTC(),
	})
}

// WithdrawalFailed notifies a user that their withdrawal failed and the
// items are back in their inventory.
func (n *Notifier) WithdrawalFailed(ctx context.Context, userID, withdrawalID int64, reason string) error {
	return n.publish(ctx, event{
		EventType:    "withdrawal_failed",
		UserID:       userID,
		WithdrawalID: withdrawalID,
		Reason:       reason,
		Timestamp:    time.Now().UTC(),
	})
}

func (n *Notifier) publish(ctx context.Context, evt event) error {
	evt.EventID = uuid.NewString()
	value, err := json.Marshal(evt)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "encoding notification")
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.UserID, 10)),
		Value: value,
	})
	if err != nil {
		return apperror.External(apperror.CodeNotificationError, "kafka publish", err)
	}
	n.log.Debug(ctx, "notification published",
		"event_type", evt.EventType, "user_id", evt.UserID, "withdrawal_id", evt.WithdrawalID)
	return nil
}
