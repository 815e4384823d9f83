package handler

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "fabshop.inventory.v1.InventoryService"

type LedgerResponse struct {
	Items []model.InventoryTransaction `json:"items"`
}

type ExportLedgerResponse struct {
	FileName string `json:"fileName"`
	Content  []byte `json:"content"`
}

type InventoryServiceServer interface {
	Receive(ctx context.Context, req *dto.MovementInput) (*dto.ApplyResult, error)
	Adjust(ctx context.Context, req *dto.MovementInput) (*dto.ApplyResult, error)
	GetMaterialLedger(ctx context.Context, req *dto.LedgerFilters) (*LedgerResponse, error)
	ExportMaterialLedger(ctx context.Context, req *dto.LedgerFilters) (*ExportLedgerResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "Receive", InventoryServiceServer.Receive),
		rpc.Unary(ServiceName, "Adjust", InventoryServiceServer.Adjust),
		rpc.Unary(ServiceName, "GetMaterialLedger", InventoryServiceServer.GetMaterialLedger),
		rpc.Unary(ServiceName, "ExportMaterialLedger", InventoryServiceServer.ExportMaterialLedger),
	},
}

var _ InventoryServiceServer = (*InventoryHandler)(nil)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *InventoryHandler) Receive(ctx context.Context, req *dto.MovementInput) (*dto.ApplyResult, error) {
	req.Actor = auth.ActorFromContext(ctx)
	res, err := h.uc.Receive(ctx, req)
	if err != nil {
		h.logger.Warn("receipt rejected", zap.String("material_id", req.MaterialID), zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (h *InventoryHandler) Adjust(ctx context.Context, req *dto.MovementInput) (*dto.ApplyResult, error) {
	req.Actor = auth.ActorFromContext(ctx)
	res, err := h.uc.Adjust(ctx, req)
	if err != nil {
		h.logger.Warn("adjustment rejected", zap.String("material_id", req.MaterialID), zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (h *InventoryHandler) GetMaterialLedger(ctx context.Context, req *dto.LedgerFilters) (*LedgerResponse, error) {
	items, err := h.uc.GetMaterialLedger(ctx, req)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.InventoryTransaction{}
	}
	return &LedgerResponse{Items: items}, nil
}

func (h *InventoryHandler) ExportMaterialLedger(ctx context.Context, req *dto.LedgerFilters) (*ExportLedgerResponse, error) {
	data, err := h.uc.ExportMaterialLedger(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ExportLedgerResponse{
		FileName: "ledger-" + req.MaterialID + ".xlsx",
		Content:  data,
	}, nil
}
