package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/ledger"
	"github.com/cliffindus/marketplace-backend/internal/visibility"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/metrics"
	"github.com/cliffindus/marketplace-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the order lifecycle: scoped reads and the transition state
// machine with its side effects.
type Service interface {
	Get(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor identity.Actor, params pagination.Params) ([]models.Order, error)
	ListShipping(ctx context.Context, actor identity.Actor) ([]models.Shipping, error)
	Transition(ctx context.Context, actor identity.Actor, orderID uuid.UUID, target enums.OrderStatus, fields ShippingFields) (*models.Order, error)
	Stats(ctx context.Context, actor identity.Actor) (*OrderStats, error)
}

// ShippingFields are the optional caller-supplied values merged into the
// shipping record when an order ships.
type ShippingFields struct {
	Address        *string `json:"address,omitempty"`
	City           *string `json:"city,omitempty"`
	State          *string `json:"state,omitempty"`
	PostalCode     *string `json:"postal_code,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

// OrderStats is the admin dashboard aggregate.
type OrderStats struct {
	Total    int64                       `json:"total"`
	ByStatus map[enums.OrderStatus]int64 `json:"by_status"`
}

type service struct {
	tx         txRunner
	repo       Repository
	ledgerRepo ledger.Repository
	metrics    *metrics.MarketplaceMetrics
}

// NewService wires the order service.
func NewService(tx txRunner, repo Repository, ledgerRepo ledger.Repository, m *metrics.MarketplaceMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{tx: tx, repo: repo, ledgerRepo: ledgerRepo, metrics: m}, nil
}

func (s *service) Get(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.FindScoped(ctx, visibility.OrdersScope(actor), orderID)
}

func (s *service) List(ctx context.Context, actor identity.Actor, params pagination.Params) ([]models.Order, error) {
	rows, err := s.repo.ListScoped(ctx, visibility.OrdersScope(actor), params)
	if err != nil {
		return nil, err
	}
	if limit := pagination.NormalizeLimit(params.Limit); len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *service) ListShipping(ctx context.Context, actor identity.Actor) ([]models.Shipping, error) {
	return s.repo.ListShippingScoped(ctx, visibility.ShippingScope(actor))
}

func (s *service) Stats(ctx context.Context, actor identity.Actor) (*OrderStats, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &OrderStats{ByStatus: counts}
	for _, total := range counts {
		stats.Total += total
	}
	return stats, nil
}

// Transition moves one order along the state machine inside a single
// transaction. The order row is locked so concurrent transitions see fresh
// status, guards run against that status, side effects land before the
// status itself is persisted.
func (s *service) Transition(ctx context.Context, actor identity.Actor, orderID uuid.UUID, target enums.OrderStatus, fields ShippingFields) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}
	if actor.IsAnonymous() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var result *models.Order
	fromLabel := "unknown"
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindScopedForUpdate(ctx, visibility.OrdersScope(actor), orderID)
		if err != nil {
			return err
		}
		current := order.Status
		fromLabel = current.String()

		if err := checkTransition(actor, current, target); err != nil {
			return err
		}

		switch target {
		case enums.OrderStatusShipped:
			if err := s.ensureShipped(ctx, repo, order, fields); err != nil {
				return err
			}
		case enums.OrderStatusDelivered:
			if err := s.ensureDelivered(ctx, repo, order); err != nil {
				return err
			}
			awarded, err := ledger.AwardOrderCompleted(ctx, s.ledgerRepo.WithTx(tx), order.UserID, order.ID, order.TotalPrice)
			if err != nil {
				return err
			}
			if awarded != nil {
				s.metrics.AddCreditPoints(awarded.Points)
			}
		case enums.OrderStatusCancelled:
			// goods presumed in transit past processing; no restock then
			if current == enums.OrderStatusPending || current == enums.OrderStatusProcessing {
				for _, item := range order.Items {
					if err := repo.RestockProduct(ctx, item.ProductID, item.Quantity); err != nil {
						return err
					}
				}
			}
		}

		updated, err := repo.UpdateStatusFrom(ctx, order.ID, current, target)
		if err != nil {
			return err
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		order.Status = target
		result = order
		return nil
	})

	s.metrics.IncTransition(fromLabel, target.String(), transitionOutcome(err))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkTransition applies the generic guards, then the per-role rules.
func checkTransition(actor identity.Actor, current, target enums.OrderStatus) error {
	if current == target {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", current)).
			WithDetails(map[string]string{"current": current.String(), "requested": target.String()})
	}
	// delivered orders can still be force-cancelled by an admin; cancelled is
	// final for everyone
	adminForcedCancel := actor.IsAdmin() && target == enums.OrderStatusCancelled && current == enums.OrderStatusDelivered
	if current.IsTerminal() && !adminForcedCancel {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and cannot change", current)).
			WithDetails(map[string]string{"current": current.String(), "requested": target.String()})
	}

	if actor.IsAdmin() {
		// exempt from the adjacency skip-guard, not from the guards above
		return nil
	}

	if !current.CanTransitionTo(target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", current, target)).
			WithDetails(map[string]string{"current": current.String(), "requested": target.String()})
	}

	switch {
	case actor.Role == enums.RoleConsumer:
		if target != enums.OrderStatusCancelled || current != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeForbidden, "consumers may only cancel pending orders")
		}
	case actor.Role.IsSeller():
		// scope already proved the seller owns a line in the order
		if target == enums.OrderStatusCancelled {
			if current != enums.OrderStatusPending && current != enums.OrderStatusProcessing {
				return pkgerrors.New(pkgerrors.CodeForbidden, "orders can no longer be cancelled at this stage")
			}
			return nil
		}
		next, ok := current.NextForward()
		if !ok || next != target {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sellers may only advance orders one step")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot transition orders")
	}
	return nil
}

func (s *service) ensureShipped(ctx context.Context, repo Repository, order *models.Order, fields ShippingFields) error {
	shipping, err := s.getOrCreateShipping(ctx, repo, order)
	if err != nil {
		return err
	}

	if shipping.ShippedDate == nil {
		now := time.Now().UTC()
		shipping.ShippedDate = &now
	}
	mergeShippingFields(shipping, fields)
	if err := repo.SaveShipping(ctx, shipping); err != nil {
		return err
	}
	order.Shipping = shipping
	return nil
}

func (s *service) ensureDelivered(ctx context.Context, repo Repository, order *models.Order) error {
	shipping, err := s.getOrCreateShipping(ctx, repo, order)
	if err != nil {
		return err
	}

	if shipping.DeliveryDate == nil {
		now := time.Now().UTC()
		shipping.DeliveryDate = &now
	}
	if err := repo.SaveShipping(ctx, shipping); err != nil {
		return err
	}
	order.Shipping = shipping
	return nil
}

func (s *service) getOrCreateShipping(ctx context.Context, repo Repository, order *models.Order) (*models.Shipping, error) {
	shipping, err := repo.FindShipping(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if shipping != nil {
		return shipping, nil
	}

	shipping = &models.Shipping{OrderID: order.ID}
	if err := repo.CreateShipping(ctx, shipping); err != nil {
		return nil, err
	}
	return shipping, nil
}

func mergeShippingFields(shipping *models.Shipping, fields ShippingFields) {
	if fields.Address != nil {
		shipping.Address = fields.Address
	}
	if fields.City != nil {
		shipping.City = fields.City
	}
	if fields.State != nil {
		shipping.State = fields.State
	}
	if fields.PostalCode != nil {
		shipping.PostalCode = fields.PostalCode
	}
	if fields.TrackingNumber != nil {
		shipping.TrackingNumber = fields.TrackingNumber
	}
}

func transitionOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeStateConflict:
			return "invalid_transition"
		case pkgerrors.CodeForbidden:
			return "forbidden"
		case pkgerrors.CodeNotFound:
			return "not_found"
		}
	}
	return "error"
}
