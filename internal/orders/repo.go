package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cliffindus/marketplace-backend/internal/visibility"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/pagination"
)

// Repository manages order, order item, and shipping persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindScoped(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Order, error)
	FindScopedForUpdate(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Order, error)
	ListScoped(ctx context.Context, scope visibility.Scope, params pagination.Params) ([]models.Order, error)
	UpdateStatusFrom(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	FindShipping(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error)
	CreateShipping(ctx context.Context, shipping *models.Shipping) error
	SaveShipping(ctx context.Context, shipping *models.Shipping) error
	ListShippingScoped(ctx context.Context, scope visibility.Scope) ([]models.Shipping, error)
	RestockProduct(ctx context.Context, productID uuid.UUID, qty int) error
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindScoped(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Order, error) {
	return r.find(ctx, scope, id, false)
}

// FindScopedForUpdate locks the order row so concurrent transitions on the
// same order serialize. SQLite has no FOR UPDATE; its single-writer
// transactions give the same guarantee.
func (r *repository) FindScopedForUpdate(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Order, error) {
	return r.find(ctx, scope, id, true)
}

func (r *repository) find(ctx context.Context, scope visibility.Scope, id uuid.UUID, lock bool) (*models.Order, error) {
	query := scope(r.db.WithContext(ctx).Model(&models.Order{}))
	if lock && r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "orders"}})
	}

	var order models.Order
	err := query.
		Preload("Items").
		Preload("Shipping").
		Where("orders.id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListScoped(ctx context.Context, scope visibility.Scope, params pagination.Params) ([]models.Order, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	query := scope(r.db.WithContext(ctx).Model(&models.Order{})).
		Distinct().
		Preload("Items").
		Order("orders.created_at DESC, orders.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"(orders.created_at, orders.id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatusFrom persists the transition only when the row still carries
// the status the guards were evaluated against.
func (r *repository) UpdateStatusFrom(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindShipping(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error) {
	var shipping models.Shipping
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&shipping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipping, nil
}

func (r *repository) CreateShipping(ctx context.Context, shipping *models.Shipping) error {
	return r.db.WithContext(ctx).Create(shipping).Error
}

func (r *repository) SaveShipping(ctx context.Context, shipping *models.Shipping) error {
	return r.db.WithContext(ctx).Save(shipping).Error
}

func (r *repository) ListShippingScoped(ctx context.Context, scope visibility.Scope) ([]models.Shipping, error) {
	var rows []models.Shipping
	err := scope(r.db.WithContext(ctx).Model(&models.Shipping{})).
		Order("shippings.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) RestockProduct(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	type row struct {
		Status enums.OrderStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, entry := range rows {
		counts[entry.Status] = entry.Total
	}
	return counts, nil
}
