package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine is one unit of one product. Quantity is represented by row
// repetition: N units of a cart line become N order lines.
type OrderLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	UnitPrice float64   `gorm:"column:unit_price;type:numeric;not null" json:"price"`
	Category  string    `gorm:"column:category;not null" json:"category"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
