package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
	ledgerdto "github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type stubUseCase struct {
	res *dto.ConsumeResult
	err error
}

func (s stubUseCase) ConsumeForOrder(context.Context, *dto.ConsumeInput) (*dto.ConsumeResult, error) {
	return s.res, s.err
}

type trailerStream struct {
	trailer metadata.MD
}

func (s *trailerStream) Method() string               { return "/" + ServiceName + "/ConsumeForOrder" }
func (s *trailerStream) SetHeader(metadata.MD) error  { return nil }
func (s *trailerStream) SendHeader(metadata.MD) error { return nil }

func (s *trailerStream) SetTrailer(md metadata.MD) error {
	s.trailer = metadata.Join(s.trailer, md)
	return nil
}

func applied(id string) ledgerdto.ApplyResult {
	return ledgerdto.ApplyResult{Transaction: &model.InventoryTransaction{ID: id}}
}

func TestPartialBatchReportsAppliedTransactions(t *testing.T) {
	failure := apperr.NotFound("material", "ghost")
	h := NewConsumptionHandler(stubUseCase{
		res: &dto.ConsumeResult{Items: []ledgerdto.ApplyResult{applied("t1"), applied("t2")}},
		err: failure,
	}, logger.NewNop())

	stream := &trailerStream{}
	ctx := grpc.NewContextWithServerTransportStream(context.Background(), stream)
	res, err := h.ConsumeForOrder(ctx, &dto.ConsumeInput{OrderID: "o1"})
	if !errors.Is(err, apperr.ErrNotFound) || res != nil {
		t.Fatalf("res = %v, err = %v", res, err)
	}
	got := stream.trailer.Get(AppliedTxnTrailer)
	if len(got) != 2 || got[0] != "t1" || got[1] != "t2" {
		t.Fatalf("trailer = %v", got)
	}
}

func TestFailedBatchWithoutAppliedItemsSetsNoTrailer(t *testing.T) {
	h := NewConsumptionHandler(stubUseCase{err: apperr.Validation("consumption", "items are required")}, logger.NewNop())

	stream := &trailerStream{}
	ctx := grpc.NewContextWithServerTransportStream(context.Background(), stream)
	if _, err := h.ConsumeForOrder(ctx, &dto.ConsumeInput{OrderID: "o1"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if len(stream.trailer) != 0 {
		t.Fatalf("trailer = %v", stream.trailer)
	}
}

func TestSuccessfulBatchPassesThrough(t *testing.T) {
	want := &dto.ConsumeResult{Items: []ledgerdto.ApplyResult{applied("t1")}}
	h := NewConsumptionHandler(stubUseCase{res: want}, logger.NewNop())

	res, err := h.ConsumeForOrder(context.Background(), &dto.ConsumeInput{OrderID: "o1"})
	if err != nil || res != want {
		t.Fatalf("res = %v, err = %v", res, err)
	}
}
