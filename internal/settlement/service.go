package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/arjunnair/tiffinbox-backend/internal/orders"
	"github.com/arjunnair/tiffinbox-backend/pkg/config"
	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
	pkgstripe "github.com/arjunnair/tiffinbox-backend/pkg/stripe"
	"github.com/google/uuid"
	"github.com/lib/pq"
	stripelib "github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Half a minor unit per category is the accepted rounding slack between the
// cart-derived snapshot and the totals re-derived from order lines.
const categoryTotalTolerance = 0.005

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Service runs the two-phase settlement protocol: create the customer charge,
// then after interactive confirmation fan the proceeds out to per-category
// destination accounts under one transfer group.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error)
	CreateTransfers(ctx context.Context, input CreateTransfersInput) error
}

// CreateIntentInput is the Phase A payload.
type CreateIntentInput struct {
	OrderID        uuid.UUID
	Amount         float64
	CategoryTotals map[string]float64
}

// IntentResult carries the client-facing secret plus the reconciliation key.
type IntentResult struct {
	ClientSecret  string `json:"clientSecret"`
	TransferGroup string `json:"transferGroup"`
}

// CreateTransfersInput is the Phase B payload.
type CreateTransfersInput struct {
	PaymentIntentID string
	OrderID         uuid.UUID
	CategoryTotals  map[string]float64
}

type service struct {
	processor pkgstripe.PaymentProcessor
	repo      Repository
	orders    orderLoader
	cfg       config.SettlementConfig
	logg      *logger.Logger
}

// NewService builds the settlement coordinator.
func NewService(processor pkgstripe.PaymentProcessor, repo Repository, orderRepo orderLoader, cfg config.SettlementConfig, logg *logger.Logger) (Service, error) {
	if processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if cfg.DefaultAccount == "" {
		return nil, fmt.Errorf("settlement default account required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		processor: processor,
		repo:      repo,
		orders:    orderRepo,
		cfg:       cfg,
		logg:      logg,
	}, nil
}

// TransferGroupFor derives the reconciliation key shared by an order's charge
// and all of its transfers.
func TransferGroupFor(orderID uuid.UUID) string {
	return fmt.Sprintf("order_%s", orderID)
}

func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	transferGroup := TransferGroupFor(input.OrderID)
	ctx = s.logg.WithTransferGroup(s.logg.WithOrderID(ctx, input.OrderID.String()), transferGroup)

	totalsJSON, err := json.Marshal(input.CategoryTotals)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding category totals")
	}

	amountMinor := minorUnits(input.Amount)
	params := &stripelib.PaymentIntentCreateParams{
		Amount:             stripelib.Int64(amountMinor),
		Currency:           stripelib.String(s.cfg.Currency),
		TransferGroup:      stripelib.String(transferGroup),
		PaymentMethodTypes: stripelib.StringSlice([]string{"card"}),
	}
	params.AddMetadata("order_id", input.OrderID.String())
	params.AddMetadata("category_totals", string(totalsJSON))

	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		s.logg.Error(ctx, "payment intent creation failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if err := s.recordIntent(ctx, input, intent.ID, amountMinor, transferGroup); err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "payment intent created")
	return &IntentResult{
		ClientSecret:  intent.ClientSecret,
		TransferGroup: transferGroup,
	}, nil
}

func (s *service) recordIntent(ctx context.Context, input CreateIntentInput, intentID string, amountMinor int64, transferGroup string) error {
	categories := make(pq.StringArray, 0, len(input.CategoryTotals))
	for category := range input.CategoryTotals {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	existing, err := s.repo.FindByOrderID(ctx, input.OrderID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settlement")
	}

	if existing == nil {
		_, err = s.repo.Create(ctx, &models.Settlement{
			OrderID:         input.OrderID,
			TransferGroup:   transferGroup,
			PaymentIntentID: intentID,
			AmountMinor:     amountMinor,
			Currency:        s.cfg.Currency,
			State:           enums.SettlementStateIntentCreated,
			CategoryTotals:  input.CategoryTotals,
			Categories:      categories,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record settlement intent")
		}
		return nil
	}

	// a new checkout attempt for the same order supersedes the prior intent
	existing.PaymentIntentID = intentID
	existing.AmountMinor = amountMinor
	existing.Currency = s.cfg.Currency
	existing.State = enums.SettlementStateIntentCreated
	existing.CategoryTotals = input.CategoryTotals
	existing.Categories = categories
	if err := s.repo.Update(ctx, existing); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refresh settlement intent")
	}
	return nil
}

func (s *service) CreateTransfers(ctx context.Context, input CreateTransfersInput) error {
	if input.PaymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(input.CategoryTotals) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "category totals are required")
	}

	transferGroup := TransferGroupFor(input.OrderID)
	ctx = s.logg.WithTransferGroup(s.logg.WithOrderID(ctx, input.OrderID.String()), transferGroup)

	intent, err := s.processor.RetrievePaymentIntent(ctx, input.PaymentIntentID, nil)
	if err != nil {
		s.logg.Error(ctx, "payment intent retrieval failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment intent")
	}
	if intent.Status != stripelib.PaymentIntentStatusSucceeded {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment has not been completed").
			WithDetails(map[string]any{"status": string(intent.Status)})
	}

	sourceCharge := resolveSourceCharge(intent)
	if sourceCharge == "" {
		return pkgerrors.New(pkgerrors.CodeInvariant, "confirmed payment intent has no resolvable source charge")
	}

	if err := s.verifyAgainstOrderLines(ctx, input.OrderID, input.CategoryTotals); err != nil {
		return err
	}

	saga, err := s.repo.FindByOrderID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no settlement recorded for order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settlement")
	}

	outcomes := s.submitTransfers(ctx, saga, sourceCharge, transferGroup, input)

	var failed error
	accepted := 0
	details := make(map[string]string, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.err != nil {
			failed = multierr.Append(failed, outcome.err)
			details[outcome.category] = "failed"
			continue
		}
		accepted++
		details[outcome.category] = "transferred"
	}

	if failed != nil {
		s.logg.Error(ctx, "settlement transfer fan-out incomplete", failed)
		if accepted > 0 {
			// accepted transfers are not rolled back; operators reconcile manually
			return pkgerrors.Wrap(pkgerrors.CodePartialSettlement, failed, "some transfers were not accepted").
				WithDetails(details)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "transfer creation failed")
	}

	if err := s.repo.UpdateState(ctx, saga.ID, enums.SettlementStateSettled); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark settlement settled")
	}

	s.logg.Info(ctx, "settlement completed")
	return nil
}

type transferOutcome struct {
	category string
	err      error
}

func (s *service) submitTransfers(ctx context.Context, saga *models.Settlement, sourceCharge, transferGroup string, input CreateTransfersInput) []transferOutcome {
	categories := make([]string, 0, len(input.CategoryTotals))
	for category := range input.CategoryTotals {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var mu sync.Mutex
	outcomes := make([]transferOutcome, 0, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range categories {
		amount := input.CategoryTotals[category]
		g.Go(func() error {
			err := s.submitOne(gctx, saga, sourceCharge, transferGroup, input.OrderID, category, amount)
			mu.Lock()
			outcomes = append(outcomes, transferOutcome{category: category, err: err})
			mu.Unlock()
			// errors are reported per category; do not cancel sibling transfers
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *service) submitOne(ctx context.Context, saga *models.Settlement, sourceCharge, transferGroup string, orderID uuid.UUID, category string, amount float64) error {
	destination := s.cfg.CategoryAccounts[category]
	if destination == "" {
		destination = s.cfg.DefaultAccount
	}

	params := &stripelib.TransferCreateParams{
		Amount:            stripelib.Int64(minorUnits(amount)),
		Currency:          stripelib.String(s.cfg.Currency),
		Destination:       stripelib.String(destination),
		SourceTransaction: stripelib.String(sourceCharge),
		TransferGroup:     stripelib.String(transferGroup),
	}
	params.AddMetadata("category", category)
	params.AddMetadata("order_id", orderID.String())

	created, err := s.processor.CreateTransfer(ctx, params)
	if err != nil {
		return fmt.Errorf("transfer for category %q: %w", category, err)
	}

	record := &models.SettlementTransfer{
		SettlementID:       saga.ID,
		Category:           category,
		AmountMinor:        minorUnits(amount),
		DestinationAccount: destination,
		StripeTransferID:   created.ID,
		TransferGroup:      transferGroup,
	}
	if err := s.repo.CreateTransfer(ctx, record); err != nil {
		// the processor accepted the transfer; losing the audit row is worth
		// surfacing but must not mask the accepted transfer
		s.logg.Error(ctx, "recording settlement transfer failed", err)
	}
	return nil
}

func (s *service) verifyAgainstOrderLines(ctx context.Context, orderID uuid.UUID, snapshot map[string]float64) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	derived := orders.CategoryTotals(order.Lines)
	if len(derived) != len(snapshot) {
		return totalsMismatch(derived, snapshot)
	}
	for category, amount := range derived {
		if math.Abs(snapshot[category]-amount) > categoryTotalTolerance {
			return totalsMismatch(derived, snapshot)
		}
	}
	return nil
}

func totalsMismatch(derived, snapshot map[string]float64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "category totals do not match the persisted order").
		WithDetails(map[string]any{"derived": derived, "submitted": snapshot})
}

func resolveSourceCharge(intent *stripelib.PaymentIntent) string {
	if intent == nil || intent.LatestCharge == nil {
		return ""
	}
	return intent.LatestCharge.ID
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
