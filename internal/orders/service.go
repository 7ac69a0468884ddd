package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arjunnair/tiffinbox-backend/internal/cart"
	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service materializes carts into persisted orders and owns status writes.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

// LineInput is one unit-priced order line candidate.
type LineInput struct {
	Name      string
	UnitPrice float64
	Category  string
}

// CreateOrderInput captures the data persisted at checkout.
type CreateOrderInput struct {
	UserID uuid.UUID
	Lines  []LineInput
	Status enums.OrderStatus
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Create persists the order row plus all line rows atomically and returns the
// order re-read with its lines. A failure at any step leaves no visible order.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one product")
	}
	status := input.Status
	if status == "" {
		status = enums.OrderStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	for _, line := range input.Lines {
		if strings.TrimSpace(line.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order line name is required")
		}
		if line.UnitPrice < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order line price cannot be negative")
		}
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.CreateOrder(ctx, &models.Order{
			UserID: input.UserID,
			Status: status,
		})
		if err != nil {
			return err
		}

		lines := make([]models.OrderLine, 0, len(input.Lines))
		for _, line := range input.Lines {
			category := strings.TrimSpace(line.Category)
			if category == "" {
				category = cart.DraftFallbackCategory
			}
			lines = append(lines, models.OrderLine{
				OrderID:   order.ID,
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Category:  category,
			})
		}
		if err := repo.CreateOrderLines(ctx, lines); err != nil {
			return err
		}

		result, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order creation failed")
	}
	return result, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	orders, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user orders")
	}
	return orders, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list all orders")
	}
	return orders, nil
}

// UpdateStatus overwrites the order status unconditionally. There is no
// current-status transition check; COMPLETED and CANCELLED are not enforced
// as terminal here.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be PENDING, COMPLETED or CANCELLED")
	}

	affected, err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return order, nil
}

// CategoryTotals re-derives per-category monetary totals from persisted order
// lines. Lines without a category accumulate under the totals fallback, the
// same normalization the cart applies.
func CategoryTotals(lines []models.OrderLine) map[string]float64 {
	totals := make(map[string]float64)
	for _, line := range lines {
		category := strings.TrimSpace(line.Category)
		if category == "" {
			category = cart.FallbackCategory
		}
		totals[category] += line.UnitPrice
	}
	return totals
}
