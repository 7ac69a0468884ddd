package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	ordersvc "github.com/arjunnair/tiffinbox-backend/internal/orders"
	"github.com/arjunnair/tiffinbox-backend/pkg/config"
	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
	"github.com/google/uuid"
	stripelib "github.com/stripe/stripe-go/v84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProcessor struct {
	mu sync.Mutex

	intentStatus stripelib.PaymentIntentStatus
	latestCharge *stripelib.Charge
	createErr    error
	retrieveErr  error

	failCategories map[string]bool

	createdIntents  []*stripelib.PaymentIntentCreateParams
	createdTransfer []*stripelib.TransferCreateParams
}

func (f *fakeProcessor) CreatePaymentIntent(ctx context.Context, params *stripelib.PaymentIntentCreateParams) (*stripelib.PaymentIntent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	f.createdIntents = append(f.createdIntents, params)
	f.mu.Unlock()
	return &stripelib.PaymentIntent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
	}, nil
}

func (f *fakeProcessor) RetrievePaymentIntent(ctx context.Context, id string, params *stripelib.PaymentIntentRetrieveParams) (*stripelib.PaymentIntent, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return &stripelib.PaymentIntent{
		ID:           id,
		Status:       f.intentStatus,
		LatestCharge: f.latestCharge,
	}, nil
}

func (f *fakeProcessor) CreateTransfer(ctx context.Context, params *stripelib.TransferCreateParams) (*stripelib.Transfer, error) {
	category := params.Metadata["category"]
	if f.failCategories[category] {
		return nil, fmt.Errorf("provider rejected transfer for %s", category)
	}
	f.mu.Lock()
	f.createdTransfer = append(f.createdTransfer, params)
	count := len(f.createdTransfer)
	f.mu.Unlock()
	return &stripelib.Transfer{ID: fmt.Sprintf("tr_%d", count)}, nil
}

func testSettlementConfig() config.SettlementConfig {
	return config.SettlementConfig{
		Currency: "inr",
		CategoryAccounts: map[string]string{
			"breakfast": "acct_breakfast",
			"beverages": "acct_beverages",
		},
		DefaultAccount: "acct_default",
	}
}

type settlementFixture struct {
	svc       Service
	processor *fakeProcessor
	repo      Repository
	db        *gorm.DB
	orderID   uuid.UUID
}

// seeds an order with lines breakfast 80 (2x40), beverages 30 (2x15),
// snacks 75 (3x25); total 185.
func newSettlementFixture(t *testing.T, processor *fakeProcessor) *settlementFixture {
	t.Helper()

	db := setupSettlementTestDB(t)
	userID := uuid.New()
	require.NoError(t, db.Create(&models.User{ID: userID, Name: "asha", Email: "asha@example.com"}).Error)

	orderID := uuid.New()
	require.NoError(t, db.Omit("Lines", "User").Create(&models.Order{
		ID:     orderID,
		UserID: userID,
		Status: enums.OrderStatusPending,
	}).Error)
	lines := []models.OrderLine{
		{Name: "Masala Dosa (regular)", UnitPrice: 40, Category: "breakfast"},
		{Name: "Masala Dosa (regular)", UnitPrice: 40, Category: "breakfast"},
		{Name: "Chai (cup)", UnitPrice: 15, Category: "beverages"},
		{Name: "Chai (cup)", UnitPrice: 15, Category: "beverages"},
		{Name: "Samosa (plate)", UnitPrice: 25, Category: "snacks"},
		{Name: "Samosa (plate)", UnitPrice: 25, Category: "snacks"},
		{Name: "Samosa (plate)", UnitPrice: 25, Category: "snacks"},
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = orderID
		require.NoError(t, db.Create(&lines[i]).Error)
	}

	repo := NewRepository(db)
	svc, err := NewService(processor, repo, ordersvc.NewRepository(db), testSettlementConfig(), logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)

	return &settlementFixture{svc: svc, processor: processor, repo: repo, db: db, orderID: orderID}
}

func fixtureTotals() map[string]float64 {
	return map[string]float64{"breakfast": 80, "beverages": 30, "snacks": 75}
}

func TestCreateIntentRecordsSagaRow(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{}
	fx := newSettlementFixture(t, processor)

	result, err := fx.svc.CreateIntent(ctx, CreateIntentInput{
		OrderID:        fx.orderID,
		Amount:         185,
		CategoryTotals: fixtureTotals(),
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_test_secret", result.ClientSecret)
	assert.Equal(t, "order_"+fx.orderID.String(), result.TransferGroup)

	require.Len(t, processor.createdIntents, 1)
	params := processor.createdIntents[0]
	assert.Equal(t, int64(18500), *params.Amount)
	assert.Equal(t, "inr", *params.Currency)
	assert.Equal(t, result.TransferGroup, *params.TransferGroup)
	assert.Equal(t, fx.orderID.String(), params.Metadata["order_id"])
	assert.Contains(t, params.Metadata["category_totals"], "breakfast")

	saga, err := fx.repo.FindByOrderID(ctx, fx.orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.SettlementStateIntentCreated, saga.State)
	assert.Equal(t, "pi_test", saga.PaymentIntentID)
	assert.Equal(t, int64(18500), saga.AmountMinor)
}

func TestCreateIntentSecondAttemptRefreshesRow(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)
	_, err = fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)

	var count int64
	require.NoError(t, fx.db.Model(&models.Settlement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 0})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: -10})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Empty(t, processor.createdIntents)
}

func TestCreateIntentProcessorFailure(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{createErr: errors.New("stripe down")}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestCreateTransfersHappyPath(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{
		intentStatus: stripelib.PaymentIntentStatusSucceeded,
		latestCharge: &stripelib.Charge{ID: "ch_source"},
	}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)

	err = fx.svc.CreateTransfers(ctx, CreateTransfersInput{
		PaymentIntentID: "pi_test",
		OrderID:         fx.orderID,
		CategoryTotals:  fixtureTotals(),
	})
	require.NoError(t, err)

	require.Len(t, processor.createdTransfer, 3)
	var totalMinor int64
	destinations := map[string]string{}
	for _, params := range processor.createdTransfer {
		totalMinor += *params.Amount
		destinations[params.Metadata["category"]] = *params.Destination
		assert.Equal(t, "ch_source", *params.SourceTransaction)
		assert.Equal(t, "order_"+fx.orderID.String(), *params.TransferGroup)
	}
	// sum of transfers equals round(total*100) within 0.5 minor units per category
	assert.InDelta(t, 18500, float64(totalMinor), 1.5)
	assert.Equal(t, "acct_breakfast", destinations["breakfast"])
	assert.Equal(t, "acct_beverages", destinations["beverages"])
	assert.Equal(t, "acct_default", destinations["snacks"], "unmapped category falls back to the default account")

	saga, err := fx.repo.FindByOrderID(ctx, fx.orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.SettlementStateSettled, saga.State)

	recorded, err := fx.repo.ListTransfers(ctx, saga.ID)
	require.NoError(t, err)
	assert.Len(t, recorded, 3)
}

func TestCreateTransfersRefusedWhenPaymentIncomplete(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{
		intentStatus: stripelib.PaymentIntentStatusRequiresPaymentMethod,
	}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)

	err = fx.svc.CreateTransfers(ctx, CreateTransfersInput{
		PaymentIntentID: "pi_test",
		OrderID:         fx.orderID,
		CategoryTotals:  fixtureTotals(),
	})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Empty(t, processor.createdTransfer, "no transfers may be created")
}

func TestCreateTransfersMissingSourceChargeIsInvariantViolation(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{
		intentStatus: stripelib.PaymentIntentStatusSucceeded,
		latestCharge: nil,
	}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)

	err = fx.svc.CreateTransfers(ctx, CreateTransfersInput{
		PaymentIntentID: "pi_test",
		OrderID:         fx.orderID,
		CategoryTotals:  fixtureTotals(),
	})
	requireCode(t, err, pkgerrors.CodeInvariant)
	assert.Empty(t, processor.createdTransfer)
}

func TestCreateTransfersRejectsSnapshotMismatch(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{
		intentStatus: stripelib.PaymentIntentStatusSucceeded,
		latestCharge: &stripelib.Charge{ID: "ch_source"},
	}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)

	err = fx.svc.CreateTransfers(ctx, CreateTransfersInput{
		PaymentIntentID: "pi_test",
		OrderID:         fx.orderID,
		CategoryTotals:  map[string]float64{"breakfast": 500},
	})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Empty(t, processor.createdTransfer)
}

func TestCreateTransfersPartialFailure(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{
		intentStatus:   stripelib.PaymentIntentStatusSucceeded,
		latestCharge:   &stripelib.Charge{ID: "ch_source"},
		failCategories: map[string]bool{"beverages": true},
	}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)

	err = fx.svc.CreateTransfers(ctx, CreateTransfersInput{
		PaymentIntentID: "pi_test",
		OrderID:         fx.orderID,
		CategoryTotals:  fixtureTotals(),
	})
	requireCode(t, err, pkgerrors.CodePartialSettlement)

	// the two accepted transfers stay accepted and audited
	assert.Len(t, processor.createdTransfer, 2)
	saga, findErr := fx.repo.FindByOrderID(ctx, fx.orderID)
	require.NoError(t, findErr)
	assert.Equal(t, enums.SettlementStateIntentCreated, saga.State, "partial settlement must not mark the saga settled")

	recorded, listErr := fx.repo.ListTransfers(ctx, saga.ID)
	require.NoError(t, listErr)
	assert.Len(t, recorded, 2)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "failed", details["beverages"])
	assert.Equal(t, "transferred", details["breakfast"])
}

func TestCreateTransfersAllFailuresIsDependencyError(t *testing.T) {
	ctx := context.Background()
	processor := &fakeProcessor{
		intentStatus: stripelib.PaymentIntentStatusSucceeded,
		latestCharge: &stripelib.Charge{ID: "ch_source"},
		failCategories: map[string]bool{
			"breakfast": true, "beverages": true, "snacks": true,
		},
	}
	fx := newSettlementFixture(t, processor)

	_, err := fx.svc.CreateIntent(ctx, CreateIntentInput{OrderID: fx.orderID, Amount: 185, CategoryTotals: fixtureTotals()})
	require.NoError(t, err)

	err = fx.svc.CreateTransfers(ctx, CreateTransfersInput{
		PaymentIntentID: "pi_test",
		OrderID:         fx.orderID,
		CategoryTotals:  fixtureTotals(),
	})
	requireCode(t, err, pkgerrors.CodeDependency)
	assert.Empty(t, processor.createdTransfer)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}
