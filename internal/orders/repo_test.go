package orders

import (
	"context"
	"testing"
	"time"

	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT,
  phone_verified INTEGER NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  created_at DATETIME,
  updated_at DATETIME
);`
	orderLines := `
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  category TEXT NOT NULL DEFAULT 'snacks',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderLines).Error)
	return db
}

func newUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time, lines ...models.OrderLine) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    status,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Omit("Lines", "User").Create(order).Error)
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = order.ID
		require.NoError(t, db.Create(&lines[i]).Error)
	}
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	user := newUser(t, db, "asha")

	created, err := repo.CreateOrder(ctx, &models.Order{UserID: user.ID, Status: enums.OrderStatusPending})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	require.NoError(t, repo.CreateOrderLines(ctx, []models.OrderLine{
		{OrderID: created.ID, Name: "Masala Dosa (regular)", UnitPrice: 40, Category: "breakfast"},
		{OrderID: created.ID, Name: "Masala Dosa (regular)", UnitPrice: 40, Category: "breakfast"},
	}))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	assert.Len(t, found.Lines, 2)
}

func TestRepositoryListForUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	user := newUser(t, db, "ravi")
	other := newUser(t, db, "meera")

	old := seedOrder(t, db, user.ID, enums.OrderStatusCompleted, time.Now().Add(-2*time.Hour),
		models.OrderLine{Name: "Chai", UnitPrice: 15, Category: "beverages"})
	recent := seedOrder(t, db, user.ID, enums.OrderStatusPending, time.Now(),
		models.OrderLine{Name: "Samosa", UnitPrice: 25, Category: "snacks"})
	seedOrder(t, db, other.ID, enums.OrderStatusPending, time.Now())

	listed, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, recent.ID, listed[0].ID)
	assert.Equal(t, old.ID, listed[1].ID)
	assert.Len(t, listed[0].Lines, 1)
}

func TestRepositoryListAllIncludesUser(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	user := newUser(t, db, "asha")
	seedOrder(t, db, user.ID, enums.OrderStatusPending, time.Now(),
		models.OrderLine{Name: "Idli", UnitPrice: 30, Category: "breakfast"})

	listed, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].User)
	assert.Equal(t, "asha", listed[0].User.Name)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	user := newUser(t, db, "asha")
	order := seedOrder(t, db, user.ID, enums.OrderStatusPending, time.Now())

	affected, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, found.Status)

	affected, err = repo.UpdateStatus(ctx, uuid.New(), enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Zero(t, affected)
}
