package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type fakeUseCase struct {
	mu    sync.Mutex
	calls []*dto.ConsumeInput
	err   error
}

func (f *fakeUseCase) ConsumeForOrder(_ context.Context, in *dto.ConsumeInput) (*dto.ConsumeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	return &dto.ConsumeResult{}, f.err
}

type fakeConsumer struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (c *fakeConsumer) FetchMessage(ctx context.Context) (kafka.Message, error) {
	c.mu.Lock()
	if len(c.msgs) == 0 {
		c.mu.Unlock()
		c.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := c.msgs[0]
	c.msgs = c.msgs[1:]
	c.mu.Unlock()
	return m, nil
}

func (c *fakeConsumer) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range msgs {
		c.committed = append(c.committed, m.Offset)
	}
	return nil
}

const validEvent = `{
	"event_id": "e1",
	"event_type": "MaterialsConsumed",
	"payload": {
		"order_id": "o1",
		"actor_user_id": "op-1",
		"actor_role": "Production",
		"items": [
			{"material_id": "steel", "quantity": 2.5, "unit_cost": 4.25, "notes": "cut"},
			{"material_id": "bolt", "quantity": 12}
		]
	},
	"timestamp": "2026-05-04T08:00:00Z"
}`

func TestProcessMessage(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewConsumptionListener(nil, uc, logger.NewNop())

	l.processMessage(context.Background(), []byte(validEvent))

	if len(uc.calls) != 1 {
		t.Fatalf("calls = %d", len(uc.calls))
	}
	in := uc.calls[0]
	if in.OrderID != "o1" || in.Actor != (auth.Actor{UserID: "op-1", Role: auth.RoleProduction}) {
		t.Fatalf("input = %+v", in)
	}
	if len(in.Items) != 2 || !in.Items[0].Qty.Equal(decimal.RequireFromString("2.5")) || in.Items[0].Notes != "cut" {
		t.Fatalf("items = %+v", in.Items)
	}
	if in.Items[0].UnitCost == nil || !in.Items[0].UnitCost.Equal(decimal.RequireFromString("4.25")) {
		t.Fatalf("unit cost = %v", in.Items[0].UnitCost)
	}
	if in.Items[1].UnitCost != nil {
		t.Fatalf("missing unit cost must stay nil")
	}
}

func TestProcessMessageIgnores(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewConsumptionListener(nil, uc, logger.NewNop())

	for _, raw := range []string{
		`not json`,
		`{"event_type": "OrderCreated", "payload": {"order_id": "o1"}}`,
	} {
		l.processMessage(context.Background(), []byte(raw))
	}
	if len(uc.calls) != 0 {
		t.Fatalf("unexpected calls: %d", len(uc.calls))
	}
}

func TestStartCommitsHandledAndRejectedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer := &fakeConsumer{
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte(validEvent)},
			{Offset: 2, Value: []byte(`garbage`)},
			{Offset: 3, Value: []byte(validEvent)},
		},
		cancel: cancel,
	}
	uc := &fakeUseCase{err: apperr.NotFound("material", "steel")}
	l := NewConsumptionListener(consumer, uc, logger.NewNop())

	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}

	if len(consumer.committed) != 3 {
		t.Fatalf("committed = %v", consumer.committed)
	}
	if len(uc.calls) != 2 {
		t.Fatalf("calls = %d", len(uc.calls))
	}
}
