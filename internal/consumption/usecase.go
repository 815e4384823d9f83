package consumption

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
)

type UseCase interface {
	// ConsumeForOrder applies items one by one. On failure the items already applied
	// stay applied and are returned alongside the error.
	ConsumeForOrder(ctx context.Context, input *dto.ConsumeInput) (*dto.ConsumeResult, error)
}
