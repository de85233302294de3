package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// Repository manages user, admin permission, and role upgrade persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EnsureAdminPermission(ctx context.Context, adminID uuid.UUID, tier enums.AdminTier) (*models.AdminPermission, error)
	FindAdminPermission(ctx context.Context, adminID uuid.UUID) (*models.AdminPermission, error)
	CreateUpgrade(ctx context.Context, request *models.RoleUpgradeRequest) error
	SaveUpgrade(ctx context.Context, request *models.RoleUpgradeRequest) error
	FindUpgradeByID(ctx context.Context, id uuid.UUID) (*models.RoleUpgradeRequest, error)
	FindPendingUpgradeByUser(ctx context.Context, userID uuid.UUID) (*models.RoleUpgradeRequest, error)
	ListUpgrades(ctx context.Context, status *enums.UpgradeStatus) ([]models.RoleUpgradeRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a user repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureAdminPermission creates the permission row for an admin on first use.
// Only the super admin tier starts with the approval flag.
func (r *repository) EnsureAdminPermission(ctx context.Context, adminID uuid.UUID, tier enums.AdminTier) (*models.AdminPermission, error) {
	existing, err := r.FindAdminPermission(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if !tier.IsElevated() {
		return nil, nil
	}

	perms := &models.AdminPermission{
		AdminID:                adminID,
		CanManageUsers:         true,
		CanViewRoleRequests:    true,
		CanApproveRoleRequests: tier == enums.AdminTierSuperAdmin,
	}
	if err := r.db.WithContext(ctx).Create(perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *repository) FindAdminPermission(ctx context.Context, adminID uuid.UUID) (*models.AdminPermission, error) {
	var perms models.AdminPermission
	err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).First(&perms).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perms, nil
}

func (r *repository) CreateUpgrade(ctx context.Context, request *models.RoleUpgradeRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) SaveUpgrade(ctx context.Context, request *models.RoleUpgradeRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *repository) FindUpgradeByID(ctx context.Context, id uuid.UUID) (*models.RoleUpgradeRequest, error) {
	var request models.RoleUpgradeRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindPendingUpgradeByUser(ctx context.Context, userID uuid.UUID) (*models.RoleUpgradeRequest, error) {
	var request models.RoleUpgradeRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.UpgradeStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListUpgrades(ctx context.Context, status *enums.UpgradeStatus) ([]models.RoleUpgradeRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.RoleUpgradeRequest{}).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var rows []models.RoleUpgradeRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
