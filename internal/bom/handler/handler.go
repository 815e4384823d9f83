package handler

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/bom"
	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "fabshop.inventory.v1.BomService"

type GetOrderBomRequest struct {
	OrderID string `json:"orderId"`
}

type OrderBomResponse struct {
	Bom *model.OrderBom `json:"bom"`
}

type BomServiceServer interface {
	GetOrderBom(ctx context.Context, req *GetOrderBomRequest) (*OrderBomResponse, error)
	UpsertOrderBom(ctx context.Context, req *dto.UpsertBomInput) (*OrderBomResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BomServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetOrderBom", BomServiceServer.GetOrderBom),
		rpc.Unary(ServiceName, "UpsertOrderBom", BomServiceServer.UpsertOrderBom),
	},
}

var _ BomServiceServer = (*BomHandler)(nil)

type BomHandler struct {
	uc     bom.UseCase
	logger logger.ZapLogger
}

func NewBomHandler(uc bom.UseCase, log logger.ZapLogger) *BomHandler {
	return &BomHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *BomHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *BomHandler) GetOrderBom(ctx context.Context, req *GetOrderBomRequest) (*OrderBomResponse, error) {
	b, err := h.uc.GetOrderBom(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	return &OrderBomResponse{Bom: b}, nil
}

func (h *BomHandler) UpsertOrderBom(ctx context.Context, req *dto.UpsertBomInput) (*OrderBomResponse, error) {
	b, err := h.uc.UpsertOrderBom(ctx, req)
	if err != nil {
		h.logger.Warn("bom upsert rejected", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}
	return &OrderBomResponse{Bom: b}, nil
}
