package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
)

// Service exposes the read side of the credit ledger. Awards happen on the
// delivered transition inside the order transaction, via AwardOrderCompleted.
type Service interface {
	Balance(ctx context.Context, actor identity.Actor) (int, error)
	History(ctx context.Context, actor identity.Actor) ([]models.CreditTransaction, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Balance(ctx context.Context, actor identity.Actor) (int, error) {
	if actor.IsAnonymous() {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.repo.SumPointsByUser(ctx, actor.UserID)
}

func (s *service) History(ctx context.Context, actor identity.Actor) ([]models.CreditTransaction, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.repo.ListByUser(ctx, actor.UserID)
}

// PointsFor computes the award for a completed order: one point per full ten
// currency units of the total.
func PointsFor(total decimal.Decimal) int {
	return int(total.Div(decimal.NewFromInt(10)).Floor().IntPart())
}

// AwardOrderCompleted appends the order_completed row for an order exactly
// once, even when the computed award is zero points. The caller passes a
// transaction-bound repository so the award commits or rolls back with the
// status change that triggered it.
func AwardOrderCompleted(ctx context.Context, repo Repository, userID, orderID uuid.UUID, total decimal.Decimal) (*models.CreditTransaction, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, fmt.Errorf("user id and order id are required")
	}

	awarded, err := repo.HasOrderCompletedAward(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if awarded {
		return nil, nil
	}

	// Totals under ten still leave a zero-point row so every delivery has a
	// ledger trace.
	points := PointsFor(total)

	ref := orderID
	txn := &models.CreditTransaction{
		UserID:      userID,
		Points:      points,
		Reason:      enums.CreditReasonOrderCompleted,
		ReferenceID: &ref,
	}
	if err := repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
