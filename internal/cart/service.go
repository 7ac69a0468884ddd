package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service aggregates cart lines for a single owner and persists every
// mutation back to the store.
type Service interface {
	Lines(ctx context.Context, ownerID uuid.UUID) ([]Line, error)
	AddLine(ctx context.Context, ownerID uuid.UUID, line Line) ([]Line, error)
	RemoveLine(ctx context.Context, ownerID uuid.UUID, itemID, size string) ([]Line, error)
	SetQuantity(ctx context.Context, ownerID uuid.UUID, itemID, size string, qty int) ([]Line, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
	Total(ctx context.Context, ownerID uuid.UUID) (float64, error)
	CategoryTotals(ctx context.Context, ownerID uuid.UUID) (map[string]float64, error)
	ToOrderDraft(ctx context.Context, ownerID uuid.UUID) (*OrderDraft, error)
}

// DraftRow is a single unit-priced order line candidate.
type DraftRow struct {
	Name      string
	UnitPrice float64
	Category  string
}

// OrderDraft is the materialization input produced from a cart snapshot.
type OrderDraft struct {
	OwnerID        uuid.UUID
	Rows           []DraftRow
	Status         enums.OrderStatus
	CategoryTotals map[string]float64
}

type service struct {
	store Store
}

// NewService builds a cart service over the provided snapshot store.
func NewService(store Store) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	return &service{store: store}, nil
}

func (s *service) Lines(ctx context.Context, ownerID uuid.UUID) ([]Line, error) {
	return s.load(ctx, ownerID)
}

func (s *service) AddLine(ctx context.Context, ownerID uuid.UUID, line Line) ([]Line, error) {
	if err := line.validate(); err != nil {
		return nil, err
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if lines[i].Key() == line.Key() {
			lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, line)
	}

	if err := s.store.Save(ctx, ownerID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *service) RemoveLine(ctx context.Context, ownerID uuid.UUID, itemID, size string) ([]Line, error) {
	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	key := Line{ItemID: itemID, Size: size}.Key()
	kept := lines[:0]
	for _, line := range lines {
		if line.Key() != key {
			kept = append(kept, line)
		}
	}

	if err := s.store.Save(ctx, ownerID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *service) SetQuantity(ctx context.Context, ownerID uuid.UUID, itemID, size string, qty int) ([]Line, error) {
	if qty <= 0 {
		return s.RemoveLine(ctx, ownerID, itemID, size)
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	key := Line{ItemID: itemID, Size: size}.Key()
	for i := range lines {
		if lines[i].Key() == key {
			lines[i].Quantity = qty
			break
		}
	}

	if err := s.store.Save(ctx, ownerID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *service) Clear(ctx context.Context, ownerID uuid.UUID) error {
	return s.store.Save(ctx, ownerID, []Line{})
}

func (s *service) Total(ctx context.Context, ownerID uuid.UUID) (float64, error) {
	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	totals, err := decimalCategoryTotals(lines)
	if err != nil {
		return 0, err
	}
	sum := decimal.Zero
	for _, amount := range totals {
		sum = sum.Add(amount)
	}
	total, _ := sum.Float64()
	return total, nil
}

func (s *service) CategoryTotals(ctx context.Context, ownerID uuid.UUID) (map[string]float64, error) {
	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	totals, err := decimalCategoryTotals(lines)
	if err != nil {
		return nil, err
	}
	result := make(map[string]float64, len(totals))
	for category, amount := range totals {
		value, _ := amount.Float64()
		result[category] = value
	}
	return result, nil
}

func (s *service) ToOrderDraft(ctx context.Context, ownerID uuid.UUID) (*OrderDraft, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	totals, err := s.CategoryTotals(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var rows []DraftRow
	for _, line := range lines {
		unitPrice, err := ParsePrice(line.Price)
		if err != nil {
			return nil, err
		}
		category := strings.TrimSpace(line.Category)
		if category == "" {
			category = DraftFallbackCategory
		}
		name := line.Name
		if line.Size != "" {
			name = fmt.Sprintf("%s (%s)", line.Name, line.Size)
		}
		price, _ := unitPrice.Float64()
		for i := 0; i < line.Quantity; i++ {
			rows = append(rows, DraftRow{
				Name:      name,
				UnitPrice: price,
				Category:  category,
			})
		}
	}

	return &OrderDraft{
		OwnerID:        ownerID,
		Rows:           rows,
		Status:         enums.OrderStatusPending,
		CategoryTotals: totals,
	}, nil
}

func (s *service) load(ctx context.Context, ownerID uuid.UUID) ([]Line, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	lines, err := s.store.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return normalizeLoaded(lines), nil
}

func decimalCategoryTotals(lines []Line) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		price, err := ParsePrice(line.Price)
		if err != nil {
			return nil, err
		}
		category := strings.TrimSpace(line.Category)
		if category == "" {
			category = FallbackCategory
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		totals[category] = totals[category].Add(lineTotal)
	}
	return totals, nil
}
