package listener

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventMaterialsConsumed = "MaterialsConsumed"

// Consumer is the part of broker.KafkaConsumer the listener needs.
type Consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ConsumptionListener struct {
	consumer Consumer
	uc       consumption.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewConsumptionListener(consumer Consumer, uc consumption.UseCase, logger logger.ZapLogger) *ConsumptionListener {
	return &ConsumptionListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

// Start blocks until ctx is cancelled. Every fetched message is committed once handled,
// including the ones that were rejected.
func (l *ConsumptionListener) Start(ctx context.Context) error {
	l.logger.Info("Starting consumption Kafka listener")
	for {
		msg, err := l.consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping consumption Kafka listener")
				return nil
			}
			l.logger.Error("Failed to fetch kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(l.backoff):
			}
			continue
		}

		l.processMessage(ctx, msg.Value)

		if err := l.consumer.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			l.logger.Error("Failed to commit kafka message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

type ConsumptionEvent struct {
	EventID   string             `json:"event_id"`
	EventType string             `json:"event_type"`
	Payload   ConsumptionPayload `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}

type ConsumptionPayload struct {
	OrderID     string                   `json:"order_id"`
	ActorUserID string                   `json:"actor_user_id"`
	ActorRole   string                   `json:"actor_role"`
	Items       []ConsumptionItemPayload `json:"items"`
}

type ConsumptionItemPayload struct {
	MaterialID string   `json:"material_id"`
	Quantity   float64  `json:"quantity"`
	UnitCost   *float64 `json:"unit_cost"`
	Notes      string   `json:"notes"`
}

func (l *ConsumptionListener) processMessage(ctx context.Context, value []byte) {
	var event ConsumptionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventMaterialsConsumed {
		return
	}

	input, ok := l.toInput(&event)
	if !ok {
		return
	}

	l.logger.Info("Processing MaterialsConsumed event",
		zap.String("event_id", event.EventID),
		zap.String("order_id", input.OrderID),
	)

	res, err := l.uc.ConsumeForOrder(ctx, input)
	if err != nil {
		applied := 0
		if res != nil {
			applied = len(res.Items)
		}
		l.logger.Error("Failed to consume materials for order",
			zap.String("event_id", event.EventID),
			zap.String("order_id", input.OrderID),
			zap.Int("applied", applied),
			zap.Error(err),
		)
	}
}

func (l *ConsumptionListener) toInput(event *ConsumptionEvent) (*dto.ConsumeInput, bool) {
	input := &dto.ConsumeInput{
		OrderID: event.Payload.OrderID,
		Items:   make([]dto.ConsumeItem, 0, len(event.Payload.Items)),
		Actor: auth.Actor{
			UserID: event.Payload.ActorUserID,
			Role:   strings.ToLower(strings.TrimSpace(event.Payload.ActorRole)),
		},
	}
	for _, item := range event.Payload.Items {
		qty, ok := model.QtyFromFloat(item.Quantity)
		if !ok {
			l.logger.Error("Rejecting event with non-finite quantity",
				zap.String("event_id", event.EventID),
				zap.String("material_id", item.MaterialID),
			)
			return nil, false
		}
		ci := dto.ConsumeItem{MaterialID: item.MaterialID, Qty: qty, Notes: item.Notes}
		if item.UnitCost != nil {
			cost, ok := model.QtyFromFloat(*item.UnitCost)
			if ok {
				ci.UnitCost = &cost
			}
		}
		input.Items = append(input.Items, ci)
	}
	return input, true
}
