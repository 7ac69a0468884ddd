package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
)

// Order is created exactly once per checkout; status is the only field that
// changes afterwards. The id is the durable join key to all payment records.
type Order struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'" json:"status"`
	Lines     []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
	User      *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
