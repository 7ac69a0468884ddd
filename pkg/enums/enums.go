package enums

// OrderStatus tracks the customer-facing lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// UserRole gates the administrative order surfaces.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleAdmin:
		return true
	default:
		return false
	}
}

// SettlementState is the two-phase saga state for a payment settlement.
// intent_created means the processor charge exists but proceeds have not been
// fanned out; settled means every per-category transfer was accepted.
type SettlementState string

const (
	SettlementStateIntentCreated SettlementState = "intent_created"
	SettlementStateSettled       SettlementState = "settled"
)

func (s SettlementState) IsValid() bool {
	switch s {
	case SettlementStateIntentCreated, SettlementStateSettled:
		return true
	default:
		return false
	}
}
