package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
)

// Settlement is the saga row linking an order's processor charge to its
// fan-out transfers. It is created in intent_created when the payment intent
// is issued and moves to settled only after every transfer is accepted, so a
// crash between phases stays detectable.
type Settlement struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;uniqueIndex" json:"orderId"`
	TransferGroup   string                `gorm:"column:transfer_group;not null" json:"transferGroup"`
	PaymentIntentID string                `gorm:"column:payment_intent_id;not null" json:"paymentIntentId"`
	AmountMinor     int64                 `gorm:"column:amount_minor;not null" json:"amountMinor"`
	Currency        string                `gorm:"column:currency;not null;default:'inr'" json:"currency"`
	State           enums.SettlementState `gorm:"column:state;type:text;not null;default:'intent_created'" json:"state"`
	CategoryTotals  map[string]float64    `gorm:"column:category_totals;type:jsonb;serializer:json" json:"categoryTotals"`
	Categories      pq.StringArray        `gorm:"column:categories;type:text[]" json:"categories"`
	Transfers       []SettlementTransfer  `gorm:"foreignKey:SettlementID;constraint:OnDelete:CASCADE" json:"transfers,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
