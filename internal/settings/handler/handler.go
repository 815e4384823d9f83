package handler

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/rpc"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
	"github.com/fekuna/fabshop-inventory-service/internal/settings/dto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "fabshop.inventory.v1.SettingsService"

type GetSettingsRequest struct{}

type SettingsResponse struct {
	Settings model.Settings `json:"settings"`
}

type SettingsServiceServer interface {
	GetSettings(ctx context.Context, req *GetSettingsRequest) (*SettingsResponse, error)
	UpdateSettings(ctx context.Context, req *dto.SettingsPatch) (*SettingsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SettingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetSettings", SettingsServiceServer.GetSettings),
		rpc.Unary(ServiceName, "UpdateSettings", SettingsServiceServer.UpdateSettings),
	},
}

var _ SettingsServiceServer = (*SettingsHandler)(nil)

type SettingsHandler struct {
	uc     settings.UseCase
	logger logger.ZapLogger
}

func NewSettingsHandler(uc settings.UseCase, log logger.ZapLogger) *SettingsHandler {
	return &SettingsHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SettingsHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *SettingsHandler) GetSettings(ctx context.Context, _ *GetSettingsRequest) (*SettingsResponse, error) {
	s, err := h.uc.GetSettings(ctx)
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		return nil, err
	}
	return &SettingsResponse{Settings: s}, nil
}

func (h *SettingsHandler) UpdateSettings(ctx context.Context, req *dto.SettingsPatch) (*SettingsResponse, error) {
	s, err := h.uc.UpdateSettings(ctx, req)
	if err != nil {
		h.logger.Error("failed to update settings", zap.Error(err))
		return nil, err
	}
	return &SettingsResponse{Settings: s}, nil
}
