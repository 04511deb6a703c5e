package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Consumer struct {
	reader *kafka.Reader
	log    logrus.FieldLogger
}

func NewConsumer(brokers []string, groupID, topic string, log logrus.FieldLogger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// ConsumeNotifications reads the notifications topic until ctx is done.
// Malformed messages and failed deliveries are logged and skipped.
func (c *Consumer) ConsumeNotifications(ctx context.Context, handle func(context.Context, Notification) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}

		entry := c.log.WithFields(logrus.Fields{
			"topic":     msg.Topic,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		n, err := DecodeNotification(msg.Value)
		if err != nil {
			entry.WithError(err).Warn("skipping malformed notification")
			continue
		}
		if err := handle(ctx, n); err != nil {
			entry.WithError(err).WithField("type", n.Type).Error("notification delivery failed")
		}
	}
}

func DecodeNotification(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	switch {
	case n.Type == NotificationTicket && n.Ticket != nil:
	case n.Type == NotificationVerification && n.Verification != nil:
	default:
		return Notification{}, fmt.Errorf("unsupported notification %q", n.Type)
	}
	return n, nil
}
