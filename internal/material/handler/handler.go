package handler

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "fabshop.inventory.v1.MaterialService"

type GetMaterialRequest struct {
	ID string `json:"id"`
}

type MaterialResponse struct {
	Material *model.Material `json:"material"`
}

type ListMaterialsResponse struct {
	Items []model.Material `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type MaterialServiceServer interface {
	ListMaterials(ctx context.Context, req *dto.MaterialFilters) (*ListMaterialsResponse, error)
	GetMaterial(ctx context.Context, req *GetMaterialRequest) (*MaterialResponse, error)
	CreateMaterial(ctx context.Context, req *dto.CreateMaterialInput) (*MaterialResponse, error)
	UpdateMaterial(ctx context.Context, req *dto.UpdateMaterialInput) (*MaterialResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MaterialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ListMaterials", MaterialServiceServer.ListMaterials),
		rpc.Unary(ServiceName, "GetMaterial", MaterialServiceServer.GetMaterial),
		rpc.Unary(ServiceName, "CreateMaterial", MaterialServiceServer.CreateMaterial),
		rpc.Unary(ServiceName, "UpdateMaterial", MaterialServiceServer.UpdateMaterial),
	},
}

var _ MaterialServiceServer = (*MaterialHandler)(nil)

type MaterialHandler struct {
	uc     material.UseCase
	logger logger.ZapLogger
}

func NewMaterialHandler(uc material.UseCase, log logger.ZapLogger) *MaterialHandler {
	return &MaterialHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *MaterialHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *MaterialHandler) ListMaterials(ctx context.Context, req *dto.MaterialFilters) (*ListMaterialsResponse, error) {
	f := *req
	f.Normalize()
	items, total, err := h.uc.ListMaterials(ctx, &f)
	if err != nil {
		h.logger.Error("failed to list materials", zap.Error(err))
		return nil, err
	}
	return &ListMaterialsResponse{Items: items, Total: total, Page: f.Page, Limit: f.PageSize}, nil
}

func (h *MaterialHandler) GetMaterial(ctx context.Context, req *GetMaterialRequest) (*MaterialResponse, error) {
	m, err := h.uc.GetMaterial(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &MaterialResponse{Material: m}, nil
}

func (h *MaterialHandler) CreateMaterial(ctx context.Context, req *dto.CreateMaterialInput) (*MaterialResponse, error) {
	m, err := h.uc.CreateMaterial(ctx, req)
	if err != nil {
		h.logger.Warn("failed to create material", zap.String("sku", req.SKU), zap.Error(err))
		return nil, err
	}
	return &MaterialResponse{Material: m}, nil
}

func (h *MaterialHandler) UpdateMaterial(ctx context.Context, req *dto.UpdateMaterialInput) (*MaterialResponse, error) {
	m, err := h.uc.UpdateMaterial(ctx, req)
	if err != nil {
		h.logger.Warn("failed to update material", zap.String("material_id", req.ID), zap.Error(err))
		return nil, err
	}
	return &MaterialResponse{Material: m}, nil
}
