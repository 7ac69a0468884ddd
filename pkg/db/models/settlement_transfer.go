package models

import (
	"time"

	"github.com/google/uuid"
)

// SettlementTransfer records one processor-accepted transfer. Rows are written
// as the processor accepts them, so a partial settlement leaves an audit trail
// of which categories were paid out.
type SettlementTransfer struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SettlementID       uuid.UUID `gorm:"column:settlement_id;type:uuid;not null;index" json:"settlementId"`
	Category           string    `gorm:"column:category;not null" json:"category"`
	AmountMinor        int64     `gorm:"column:amount_minor;not null" json:"amountMinor"`
	DestinationAccount string    `gorm:"column:destination_account;not null" json:"destinationAccount"`
	StripeTransferID   string    `gorm:"column:stripe_transfer_id;not null;unique" json:"stripeTransferId"`
	TransferGroup      string    `gorm:"column:transfer_group;not null" json:"transferGroup"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
