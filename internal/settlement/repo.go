package settlement

import (
	"context"

	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, settlement *models.Settlement) (*models.Settlement, error) {
	if settlement.ID == uuid.Nil {
		settlement.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Transfers").Create(settlement).Error; err != nil {
		return nil, err
	}
	return settlement, nil
}

func (r *repository) Update(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).Omit("Transfers").Save(settlement).Error
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Preload("Transfers").
		Where("order_id = ?", orderID).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) UpdateState(ctx context.Context, id uuid.UUID, state enums.SettlementState) error {
	return r.db.WithContext(ctx).
		Model(&models.Settlement{}).
		Where("id = ?", id).
		Update("state", state).Error
}

func (r *repository) CreateTransfer(ctx context.Context, transfer *models.SettlementTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *repository) ListTransfers(ctx context.Context, settlementID uuid.UUID) ([]models.SettlementTransfer, error) {
	var transfers []models.SettlementTransfer
	err := r.db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("created_at ASC").
		Find(&transfers).Error
	if err != nil {
		return nil, err
	}
	return transfers, nil
}
