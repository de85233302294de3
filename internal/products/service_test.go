package products

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
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/pagination"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
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
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedSeller(t *testing.T, db *gorm.DB, role enums.Role, verified bool) identity.Actor {
	t.Helper()

	user := &models.User{
		ID:         uuid.New(),
		Email:      fmt.Sprintf("%s@example.com", uuid.NewString()),
		Role:       role,
		IsVerified: verified,
	}
	require.NoError(t, db.Create(user).Error)
	return identity.Actor{UserID: user.ID, Role: role, IsVerified: verified}
}

func newServiceForTest(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestCreateProduct(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newServiceForTest(t, db)
	ctx := context.Background()

	wholesaler := seedSeller(t, db, enums.RoleWholesaler, true)
	dto, err := svc.Create(ctx, wholesaler, CreateProductInput{
		Name:  "bulk widgets",
		Price: decimal.RequireFromString("19.99"),
		Stock: 40,
	})
	require.NoError(t, err)
	require.Equal(t, wholesaler.UserID, dto.OwnerID)
	require.Equal(t, 40, dto.Stock)
	require.True(t, dto.IsActive)

	consumer := seedSeller(t, db, enums.RoleConsumer, true)
	_, err = svc.Create(ctx, consumer, CreateProductInput{Name: "nope", Price: decimal.NewFromInt(1)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	_, err = svc.Create(ctx, wholesaler, CreateProductInput{Name: "neg", Price: decimal.NewFromInt(-1)})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateDropsStockForEveryone(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newServiceForTest(t, db)
	ctx := context.Background()

	owner := seedSeller(t, db, enums.RoleRetailer, true)
	dto, err := svc.Create(ctx, owner, CreateProductInput{
		Name:  "widget",
		Price: decimal.NewFromInt(10),
		Stock: 7,
	})
	require.NoError(t, err)

	name := "renamed widget"
	stock := 999
	inactive := false
	updated, err := svc.Update(ctx, owner, dto.ID, UpdateProductInput{
		Name:     &name,
		Stock:    &stock,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, "renamed widget", updated.Name)
	require.Equal(t, 7, updated.Stock, "stock writes must be dropped")
	require.False(t, updated.IsActive)

	admin := identity.Actor{UserID: uuid.New(), Role: enums.RoleAdmin, AdminTier: enums.AdminTierAdmin}
	updated, err = svc.Update(ctx, admin, dto.ID, UpdateProductInput{Stock: &stock})
	require.NoError(t, err)
	require.Equal(t, 7, updated.Stock, "stock writes must be dropped even for admins")
}

func TestUpdateDeniedForNonOwner(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newServiceForTest(t, db)
	ctx := context.Background()

	owner := seedSeller(t, db, enums.RoleWholesaler, true)
	dto, err := svc.Create(ctx, owner, CreateProductInput{Name: "widget", Price: decimal.NewFromInt(5), Stock: 1})
	require.NoError(t, err)

	// another wholesaler cannot even see the product, so the failure reads
	// as not-found rather than forbidden
	other := seedSeller(t, db, enums.RoleWholesaler, true)
	name := "hijack"
	_, err = svc.Update(ctx, other, dto.ID, UpdateProductInput{Name: &name})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestGetHonorsVisibility(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newServiceForTest(t, db)
	ctx := context.Background()

	wholesaler := seedSeller(t, db, enums.RoleWholesaler, true)
	dto, err := svc.Create(ctx, wholesaler, CreateProductInput{Name: "w-item", Price: decimal.NewFromInt(3), Stock: 2})
	require.NoError(t, err)

	retailer := seedSeller(t, db, enums.RoleRetailer, true)
	got, err := svc.Get(ctx, retailer, dto.ID)
	require.NoError(t, err)
	require.Equal(t, dto.ID, got.ID)

	consumer := seedSeller(t, db, enums.RoleConsumer, true)
	_, err = svc.Get(ctx, consumer, dto.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListPaginates(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newServiceForTest(t, db)
	ctx := context.Background()

	owner := seedSeller(t, db, enums.RoleWholesaler, true)
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, owner, CreateProductInput{
			Name:  fmt.Sprintf("item-%d", i),
			Price: decimal.NewFromInt(int64(i + 1)),
			Stock: 1,
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, owner, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)

	all, err := svc.List(ctx, owner, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, all, 5)
}
