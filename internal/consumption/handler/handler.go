package handler

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const ServiceName = "fabshop.inventory.v1.ConsumptionService"

// AppliedTxnTrailer carries the ids of the transactions a failed batch still committed.
const AppliedTxnTrailer = "x-applied-transaction-ids"

type ConsumptionServiceServer interface {
	ConsumeForOrder(ctx context.Context, req *dto.ConsumeInput) (*dto.ConsumeResult, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConsumptionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ConsumeForOrder", ConsumptionServiceServer.ConsumeForOrder),
	},
}

var _ ConsumptionServiceServer = (*ConsumptionHandler)(nil)

type ConsumptionHandler struct {
	uc     consumption.UseCase
	logger logger.ZapLogger
}

func NewConsumptionHandler(uc consumption.UseCase, log logger.ZapLogger) *ConsumptionHandler {
	return &ConsumptionHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ConsumptionHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

// ConsumeForOrder returns the error on partial failure. A non-OK status carries no
// body, so the committed transaction ids go out in the AppliedTxnTrailer trailer.
func (h *ConsumptionHandler) ConsumeForOrder(ctx context.Context, req *dto.ConsumeInput) (*dto.ConsumeResult, error) {
	req.Actor = auth.ActorFromContext(ctx)
	res, err := h.uc.ConsumeForOrder(ctx, req)
	if err != nil {
		applied := 0
		if res != nil {
			applied = len(res.Items)
		}
		h.logger.Warn("consume for order failed",
			zap.String("order_id", req.OrderID),
			zap.Int("applied", applied),
			zap.Error(err),
		)
		h.setAppliedTrailer(ctx, res)
		return nil, err
	}
	return res, nil
}

func (h *ConsumptionHandler) setAppliedTrailer(ctx context.Context, res *dto.ConsumeResult) {
	if res == nil || len(res.Items) == 0 {
		return
	}
	ids := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		if it.Transaction != nil {
			ids = append(ids, it.Transaction.ID)
		}
	}
	if err := grpc.SetTrailer(ctx, metadata.MD{AppliedTxnTrailer: ids}); err != nil {
		h.logger.Warn("failed to set applied transactions trailer", zap.Error(err))
	}
}
