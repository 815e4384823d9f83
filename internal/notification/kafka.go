package notification

import (
	"context"
	"encoding/json"

	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"go.uber.org/zap"
)

type publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaNotifier publishes notifications to the notifications topic, keyed by entity id
// so alerts for one material stay ordered.
type KafkaNotifier struct {
	producer publisher
	logger   logger.ZapLogger
}

func NewKafkaNotifier(producer publisher, log logger.ZapLogger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, logger: log}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := k.producer.Publish(ctx, []byte(n.EntityID), body); err != nil {
		return err
	}
	k.logger.Debug("notification queued",
		zap.String("type", n.Type),
		zap.String("entity_id", n.EntityID),
		zap.Strings("roles", n.Roles),
	)
	return nil
}

// LogNotifier only logs. Used when Kafka is disabled.
type LogNotifier struct {
	logger logger.ZapLogger
}

func NewLogNotifier(log logger.ZapLogger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info(n.Title,
		zap.String("type", n.Type),
		zap.String("message", n.Message),
		zap.String("entity_id", n.EntityID),
		zap.Strings("roles", n.Roles),
		zap.Strings("user_ids", n.UserIDs),
	)
	return nil
}

var (
	_ Port = (*KafkaNotifier)(nil)
	_ Port = (*LogNotifier)(nil)
)
