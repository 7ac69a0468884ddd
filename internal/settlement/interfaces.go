package settlement

import (
	"context"

	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for settlement saga rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, settlement *models.Settlement) (*models.Settlement, error)
	Update(ctx context.Context, settlement *models.Settlement) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error)
	UpdateState(ctx context.Context, id uuid.UUID, state enums.SettlementState) error
	CreateTransfer(ctx context.Context, transfer *models.SettlementTransfer) error
	ListTransfers(ctx context.Context, settlementID uuid.UUID) ([]models.SettlementTransfer, error)
}
