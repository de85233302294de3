package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// Repository manages persistence for credit transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.CreditTransaction) error
	HasOrderCompletedAward(ctx context.Context, orderID uuid.UUID) (bool, error)
	SumPointsByUser(ctx context.Context, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CreditTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) HasOrderCompletedAward(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CreditTransaction{}).
		Where("reason = ? AND reference_id = ?", enums.CreditReasonOrderCompleted, orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) SumPointsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(points)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CreditTransaction, error) {
	var rows []models.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
