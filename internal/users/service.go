package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/notifications"
	"github.com/cliffindus/marketplace-backend/internal/permissions"
	"github.com/cliffindus/marketplace-backend/pkg/config"
	"github.com/cliffindus/marketplace-backend/pkg/db"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
	"github.com/cliffindus/marketplace-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput is the payload for creating a new account. Every new account
// starts as an unverified consumer.
type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Phone    string  `json:"phone" validate:"required"`
	Address  *string `json:"address,omitempty"`
}

// UpgradeInput is the payload for requesting a seller role.
type UpgradeInput struct {
	RequestedRole enums.Role `json:"requested_role" validate:"required"`
	BusinessName  *string    `json:"business_name,omitempty"`
}

// Service exposes account management and the role upgrade lifecycle.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Get(ctx context.Context, actor identity.Actor, userID uuid.UUID) (*models.User, error)
	SetVerification(ctx context.Context, actor identity.Actor, userID uuid.UUID, verified bool) (*models.User, error)
	RequestUpgrade(ctx context.Context, actor identity.Actor, input UpgradeInput) (*models.RoleUpgradeRequest, error)
	ListUpgrades(ctx context.Context, actor identity.Actor, status *enums.UpgradeStatus) ([]models.RoleUpgradeRequest, error)
	DecideUpgrade(ctx context.Context, actor identity.Actor, requestID uuid.UUID, approve bool, comment *string) (*models.RoleUpgradeRequest, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	notifier    notifications.Notifier
	log         *logger.Logger
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies for the user service. Notifier and
// Log are optional.
type ServiceParams struct {
	Tx             txRunner
	Repo           Repository
	Notifier       notifications.Notifier
	Log            *logger.Logger
	PasswordConfig config.PasswordConfig
}

// NewService wires the user service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{
		tx:          params.Tx,
		repo:        params.Repo,
		notifier:    params.Notifier,
		log:         params.Log,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      input.Address,
		Role:         enums.RoleConsumer,
		AdminTier:    enums.AdminTierNone,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		if err := repo.Create(ctx, user); err != nil {
			// Concurrent registration can slip past the lookup above.
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifications.Dispatch(ctx, s.notifier, s.log, notifications.Notification{
		UserID:  user.ID,
		Kind:    notifications.KindWelcome,
		Message: "account created",
	})
	return user, nil
}

func (s *service) Get(ctx context.Context, actor identity.Actor, userID uuid.UUID) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.UserID != userID {
		perms, err := s.adminPerms(ctx, actor)
		if err != nil {
			return nil, err
		}
		if d := permissions.CanManageUsers(actor, perms); !d.Allowed {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

// SetVerification flips the verified flag and stamps the audit fields. The
// stamp records who verified; clearing removes it.
func (s *service) SetVerification(ctx context.Context, actor identity.Actor, userID uuid.UUID, verified bool) (*models.User, error) {
	perms, err := s.adminPerms(ctx, actor)
	if err != nil {
		return nil, err
	}
	if d := permissions.CanManageUsers(actor, perms); !d.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err = repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		user.IsVerified = verified
		if verified {
			now := time.Now().UTC()
			adminID := actor.UserID
			user.VerifiedByID = &adminID
			user.VerifiedAt = &now
		} else {
			user.VerifiedByID = nil
			user.VerifiedAt = nil
		}
		if err := repo.Save(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save user")
		}
		if _, err := repo.EnsureAdminPermission(ctx, user.ID, user.AdminTier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure admin permission")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verified {
		notifications.Dispatch(ctx, s.notifier, s.log, notifications.Notification{
			UserID:  user.ID,
			Kind:    notifications.KindAccountVerified,
			Message: "account verified",
		})
	}
	return user, nil
}

func (s *service) RequestUpgrade(ctx context.Context, actor identity.Actor, input UpgradeInput) (*models.RoleUpgradeRequest, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admins cannot request role upgrades")
	}
	if !input.RequestedRole.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested role must be retailer or wholesaler")
	}
	if actor.Role == input.RequestedRole {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already holds the requested role")
	}

	request := &models.RoleUpgradeRequest{
		UserID:        actor.UserID,
		RequestedRole: input.RequestedRole,
		BusinessName:  input.BusinessName,
		Status:        enums.UpgradeStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pending, err := repo.FindPendingUpgradeByUser(ctx, actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pending upgrade")
		}
		if pending != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "an upgrade request is already pending")
		}
		if err := repo.CreateUpgrade(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upgrade request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) ListUpgrades(ctx context.Context, actor identity.Actor, status *enums.UpgradeStatus) ([]models.RoleUpgradeRequest, error) {
	perms, err := s.adminPerms(ctx, actor)
	if err != nil {
		return nil, err
	}
	if d := permissions.CanViewUpgrades(actor, perms); !d.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}
	return s.repo.ListUpgrades(ctx, status)
}

// DecideUpgrade approves or rejects a pending request. Approval promotes the
// user to the requested role and verifies them in the same transaction.
func (s *service) DecideUpgrade(ctx context.Context, actor identity.Actor, requestID uuid.UUID, approve bool, comment *string) (*models.RoleUpgradeRequest, error) {
	perms, err := s.adminPerms(ctx, actor)
	if err != nil {
		return nil, err
	}
	if d := permissions.CanApproveUpgrades(actor, perms); !d.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}

	var request *models.RoleUpgradeRequest
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err = repo.FindUpgradeByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "upgrade request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load upgrade request")
		}
		if request.Status != enums.UpgradeStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("upgrade request is already %s", request.Status))
		}

		if approve {
			user, err := repo.FindByID(ctx, request.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load requesting user")
			}
			now := time.Now().UTC()
			adminID := actor.UserID
			user.Role = request.RequestedRole
			user.IsVerified = true
			user.VerifiedByID = &adminID
			user.VerifiedAt = &now
			if err := repo.Save(ctx, user); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "promote user")
			}
			request.Status = enums.UpgradeStatusApproved
		} else {
			request.Status = enums.UpgradeStatusRejected
		}
		request.AdminComment = comment
		if err := repo.SaveUpgrade(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save upgrade request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := notifications.KindUpgradeRejected
	message := "role upgrade rejected"
	if approve {
		kind = notifications.KindUpgradeApproved
		message = "role upgrade approved"
	}
	notifications.Dispatch(ctx, s.notifier, s.log, notifications.Notification{
		UserID:  request.UserID,
		Kind:    kind,
		Message: message,
	})
	return request, nil
}

// adminPerms loads the caller's permission flags, creating the row lazily for
// elevated tiers. Non-admin callers read nil and fail the permission check.
func (s *service) adminPerms(ctx context.Context, actor identity.Actor) (*models.AdminPermission, error) {
	if !actor.IsAdmin() || !actor.AdminTier.IsElevated() {
		return nil, nil
	}
	perms, err := s.repo.EnsureAdminPermission(ctx, actor.UserID, actor.AdminTier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load admin permissions")
	}
	return perms, nil
}
