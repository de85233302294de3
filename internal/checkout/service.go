package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cliffindus/marketplace-backend/internal/cart"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/permissions"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts a consumer's cart into a pending order atomically.
type Service interface {
	Execute(ctx context.Context, actor identity.Actor) (*models.Order, error)
}

// StockShortage names one offending cart line in an insufficient stock error.
type StockShortage struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

type service struct {
	tx       txRunner
	cartRepo cart.Repository
	repo     Repository
	metrics  *metrics.MarketplaceMetrics
}

// NewService wires the checkout engine.
func NewService(tx txRunner, cartRepo cart.Repository, repo Repository, m *metrics.MarketplaceMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	return &service{tx: tx, cartRepo: cartRepo, repo: repo, metrics: m}, nil
}

// Execute runs the whole checkout in one transaction: stock re-read under
// lock, order plus snapshot lines, guarded decrements, cart cleared. Any
// failure rolls everything back.
func (s *service) Execute(ctx context.Context, actor identity.Actor) (*models.Order, error) {
	started := time.Now()
	order, err := s.execute(ctx, actor)
	s.metrics.ObserveCheckout(outcomeLabel(err), time.Since(started))
	return order, err
}

func (s *service) execute(ctx context.Context, actor identity.Actor) (*models.Order, error) {
	if d := permissions.CanCreateOrder(actor); !d.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		repo := s.repo.WithTx(tx)

		record, err := cartRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		items, err := cartRepo.ListItems(ctx, record.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		productIDs := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		locked, err := repo.LockProducts(ctx, productIDs)
		if err != nil {
			return err
		}

		var shortages []StockShortage
		total := decimal.Zero
		for _, item := range items {
			product, ok := locked[item.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer exists")
			}
			if item.Quantity > product.Stock {
				shortages = append(shortages, StockShortage{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   item.Quantity,
					Available:   product.Stock,
				})
				continue
			}
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if len(shortages) > 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for one or more items").
				WithDetails(shortages)
		}

		order := &models.Order{
			UserID:     actor.UserID,
			Status:     enums.OrderStatusPending,
			TotalPrice: total,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product := locked[item.ProductID]
			orderItems = append(orderItems, models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})

			ok, err := repo.DecrementStock(ctx, product.ID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// lost the race despite the lock; surface as a shortage
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for one or more items").
					WithDetails([]StockShortage{{
						ProductID:   product.ID,
						ProductName: product.Name,
						Requested:   item.Quantity,
						Available:   product.Stock,
					}})
			}
		}
		if err := repo.CreateOrderItems(ctx, orderItems); err != nil {
			return err
		}

		if err := cartRepo.DeleteItems(ctx, record.ID); err != nil {
			return err
		}

		order.Items = orderItems
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeInsufficientStock:
			return "insufficient_stock"
		case pkgerrors.CodeValidation:
			return "empty_cart"
		case pkgerrors.CodeForbidden:
			return "forbidden"
		}
	}
	return "error"
}
