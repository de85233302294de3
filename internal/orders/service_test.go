package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/ledger"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  address TEXT,
  role TEXT NOT NULL DEFAULT 'consumer',
  is_verified INTEGER NOT NULL DEFAULT 0,
  admin_tier TEXT NOT NULL DEFAULT 'none',
  verified_by_id TEXT,
  verified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME
);`,
		`CREATE TABLE shippings (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  address TEXT, city TEXT, state TEXT, postal_code TEXT,
  tracking_number TEXT,
  shipped_date DATETIME,
  delivery_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE credit_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  points INTEGER NOT NULL,
  reason TEXT NOT NULL,
  reference_id TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	svc      Service
	admin    identity.Actor
	seller   identity.Actor
	consumer identity.Actor
	product  *models.Product
	order    *models.Order
}

func newFixture(t *testing.T, status enums.OrderStatus) *fixture {
	t.Helper()

	db := setupOrdersTestDB(t)
	svc, err := NewService(testTxRunner{db: db}, NewRepository(db), ledger.NewRepository(db), nil)
	require.NoError(t, err)

	admin := seedOrderUser(t, db, enums.RoleAdmin, true)
	seller := seedOrderUser(t, db, enums.RoleRetailer, true)
	consumer := seedOrderUser(t, db, enums.RoleConsumer, true)

	product := &models.Product{
		ID:       uuid.New(),
		OwnerID:  seller.UserID,
		Name:     "widget",
		Price:    decimal.RequireFromString("50.00"),
		Stock:    5,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)

	order := &models.Order{
		ID:         uuid.New(),
		UserID:     consumer.UserID,
		Status:     status,
		TotalPrice: decimal.RequireFromString("100.00"),
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Create(&models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("50.00"),
	}).Error)

	return &fixture{
		db:       db,
		svc:      svc,
		admin:    admin,
		seller:   seller,
		consumer: consumer,
		product:  product,
		order:    order,
	}
}

func seedOrderUser(t *testing.T, db *gorm.DB, role enums.Role, verified bool) identity.Actor {
	t.Helper()

	tier := enums.AdminTierNone
	if role == enums.RoleAdmin {
		tier = enums.AdminTierAdmin
	}
	user := &models.User{
		ID:         uuid.New(),
		Email:      fmt.Sprintf("%s@example.com", uuid.NewString()),
		Role:       role,
		IsVerified: verified,
		AdminTier:  tier,
	}
	require.NoError(t, db.Create(user).Error)
	return identity.Actor{UserID: user.ID, Role: role, IsVerified: verified, AdminTier: tier}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()

	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", f.product.ID).Error)
	return product.Stock
}

func (f *fixture) status(t *testing.T) enums.OrderStatus {
	t.Helper()

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
	return order.Status
}

func (f *fixture) creditCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	require.NoError(t, f.db.Model(&models.CreditTransaction{}).Count(&count).Error)
	return count
}

func TestSellerShipsOrder(t *testing.T) {
	f := newFixture(t, enums.OrderStatusProcessing)
	ctx := context.Background()

	tracking := "TRK-12345"
	order, err := f.svc.Transition(ctx, f.seller, f.order.ID, enums.OrderStatusShipped, ShippingFields{
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, order.Status)
	require.NotNil(t, order.Shipping, "shipping must be created lazily")
	require.NotNil(t, order.Shipping.ShippedDate)
	require.NotNil(t, order.Shipping.TrackingNumber)
	require.Equal(t, tracking, *order.Shipping.TrackingNumber)
	require.Equal(t, enums.OrderStatusShipped, f.status(t))
}

func TestDeliveredAwardsCreditsOnce(t *testing.T) {
	f := newFixture(t, enums.OrderStatusShipped)
	ctx := context.Background()

	order, err := f.svc.Transition(ctx, f.seller, f.order.ID, enums.OrderStatusDelivered, ShippingFields{})
	require.NoError(t, err)
	require.NotNil(t, order.Shipping)
	require.NotNil(t, order.Shipping.DeliveryDate)

	var txn models.CreditTransaction
	require.NoError(t, f.db.First(&txn, "reference_id = ?", f.order.ID).Error)
	require.Equal(t, 10, txn.Points, "floor(100.00/10)")
	require.Equal(t, f.consumer.UserID, txn.UserID)
	require.Equal(t, enums.CreditReasonOrderCompleted, txn.Reason)
	require.EqualValues(t, 1, f.creditCount(t))

	// delivered is terminal; re-requesting cannot double-award
	_, err = f.svc.Transition(ctx, f.seller, f.order.ID, enums.OrderStatusDelivered, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeStateConflict)
	require.EqualValues(t, 1, f.creditCount(t))
}

func TestDeliveredCheapOrderLeavesZeroPointTrace(t *testing.T) {
	f := newFixture(t, enums.OrderStatusShipped)
	ctx := context.Background()

	cheap := &models.Order{
		ID:         uuid.New(),
		UserID:     f.consumer.UserID,
		Status:     enums.OrderStatusShipped,
		TotalPrice: decimal.RequireFromString("9.50"),
	}
	require.NoError(t, f.db.Create(cheap).Error)
	require.NoError(t, f.db.Create(&models.OrderItem{
		ID:        uuid.New(),
		OrderID:   cheap.ID,
		ProductID: f.product.ID,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("9.50"),
	}).Error)

	_, err := f.svc.Transition(ctx, f.seller, cheap.ID, enums.OrderStatusDelivered, ShippingFields{})
	require.NoError(t, err)

	var txn models.CreditTransaction
	require.NoError(t, f.db.First(&txn, "reference_id = ?", cheap.ID).Error)
	require.Zero(t, txn.Points, "sub-threshold totals still leave a ledger row")
	require.Equal(t, enums.CreditReasonOrderCompleted, txn.Reason)
}

func TestConsumerCancelsPendingWithRestock(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, f.consumer, f.order.ID, enums.OrderStatusCancelled, ShippingFields{})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, f.status(t))
	require.Equal(t, 7, f.stock(t), "restock adds the line quantity back")
}

func TestConsumerCannotCancelProcessing(t *testing.T) {
	f := newFixture(t, enums.OrderStatusProcessing)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, f.consumer, f.order.ID, enums.OrderStatusCancelled, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeForbidden)
	require.Equal(t, enums.OrderStatusProcessing, f.status(t))
	require.Equal(t, 5, f.stock(t))
}

func TestNoOpTransitionRejected(t *testing.T) {
	f := newFixture(t, enums.OrderStatusProcessing)
	ctx := context.Background()

	for _, actor := range []identity.Actor{f.admin, f.seller} {
		_, err := f.svc.Transition(ctx, actor, f.order.ID, enums.OrderStatusProcessing, ShippingFields{})
		requireCode(t, err, pkgerrors.CodeStateConflict)
	}
	require.Equal(t, enums.OrderStatusProcessing, f.status(t))
}

func TestSkipAheadRejectedForNonAdmin(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, f.seller, f.order.ID, enums.OrderStatusDelivered, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeStateConflict)
	require.Equal(t, enums.OrderStatusPending, f.status(t))

	_, err = f.svc.Transition(ctx, f.seller, f.order.ID, enums.OrderStatusShipped, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestBackwardTransitionRejected(t *testing.T) {
	f := newFixture(t, enums.OrderStatusShipped)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, f.seller, f.order.ID, enums.OrderStatusProcessing, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeStateConflict)
	require.Equal(t, enums.OrderStatusShipped, f.status(t))
}

func TestAdminSkipsAhead(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	order, err := f.svc.Transition(ctx, f.admin, f.order.ID, enums.OrderStatusDelivered, ShippingFields{})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusDelivered, order.Status)
	require.NotNil(t, order.Shipping)
	require.NotNil(t, order.Shipping.DeliveryDate)
	require.EqualValues(t, 1, f.creditCount(t), "forced delivery still awards credits")
}

func TestAdminForcedCancelFromDeliveredDoesNotRestock(t *testing.T) {
	f := newFixture(t, enums.OrderStatusDelivered)
	ctx := context.Background()

	order, err := f.svc.Transition(ctx, f.admin, f.order.ID, enums.OrderStatusCancelled, ShippingFields{})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, order.Status)
	require.Equal(t, 5, f.stock(t), "goods already delivered; no restock")

	// cancelled is final even for admins
	_, err = f.svc.Transition(ctx, f.admin, f.order.ID, enums.OrderStatusPending, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdminCancelFromShippedDoesNotRestock(t *testing.T) {
	f := newFixture(t, enums.OrderStatusShipped)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, f.admin, f.order.ID, enums.OrderStatusCancelled, ShippingFields{})
	require.NoError(t, err)
	require.Equal(t, 5, f.stock(t))
}

func TestSellerCannotCancelShipped(t *testing.T) {
	f := newFixture(t, enums.OrderStatusShipped)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, f.seller, f.order.ID, enums.OrderStatusCancelled, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestHiddenOrderReadsAsNotFound(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	stranger := seedOrderUser(t, f.db, enums.RoleConsumer, true)
	_, err := f.svc.Transition(ctx, stranger, f.order.ID, enums.OrderStatusCancelled, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeNotFound)

	otherSeller := seedOrderUser(t, f.db, enums.RoleWholesaler, true)
	_, err = f.svc.Transition(ctx, otherSeller, f.order.ID, enums.OrderStatusProcessing, ShippingFields{})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestInvalidTargetStatus(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, f.admin, f.order.ID, enums.OrderStatus("returned"), ShippingFields{})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestStatsRequiresAdmin(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	stats, err := f.svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Total)
	require.EqualValues(t, 1, stats.ByStatus[enums.OrderStatusPending])

	_, err = f.svc.Stats(ctx, f.seller)
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestListScopedForSellerAndConsumer(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	sellerOrders, err := f.svc.List(ctx, f.seller, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, sellerOrders, 1)

	consumerOrders, err := f.svc.List(ctx, f.consumer, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, consumerOrders, 1)

	stranger := seedOrderUser(t, f.db, enums.RoleConsumer, true)
	none, err := f.svc.List(ctx, stranger, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, none)
}
