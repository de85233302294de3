package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/permissions"
	"github.com/cliffindus/marketplace-backend/internal/products"
	"github.com/cliffindus/marketplace-backend/internal/visibility"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
)

// Service manages the consumer's single active cart.
type Service interface {
	GetOrCreate(ctx context.Context, actor identity.Actor) (*models.Cart, []models.CartItem, error)
	List(ctx context.Context, actor identity.Actor) ([]models.Cart, error)
	AddItem(ctx context.Context, actor identity.Actor, input AddItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, actor identity.Actor, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, actor identity.Actor, itemID uuid.UUID) error
}

// AddItemInput identifies the product and quantity to add.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type service struct {
	repo        Repository
	productRepo products.Repository
}

// NewService wires the cart service with its repositories.
func NewService(repo Repository, productRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

func (s *service) GetOrCreate(ctx context.Context, actor identity.Actor) (*models.Cart, []models.CartItem, error) {
	if d := permissions.CanCreateOrder(actor); !d.Allowed {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}

	cart, err := s.repo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		cart = &models.Cart{UserID: actor.UserID}
		if err := s.repo.Create(ctx, cart); err != nil {
			return nil, nil, err
		}
	}

	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, nil, err
	}
	return cart, items, nil
}

// List returns the carts the actor may see: admins every cart, verified
// consumers their own, everyone else nothing.
func (s *service) List(ctx context.Context, actor identity.Actor) ([]models.Cart, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.repo.ListScoped(ctx, visibility.CartsScope(actor))
}

func (s *service) AddItem(ctx context.Context, actor identity.Actor, input AddItemInput) (*models.CartItem, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, _, err := s.GetOrCreate(ctx, actor)
	if err != nil {
		return nil, err
	}

	// the product must be visible to the buyer; hidden listings read as absent
	product, err := s.productRepo.FindByID(ctx, visibility.ProductsScope(actor), input.ProductID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItemByProduct(ctx, cart.ID, product.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Quantity += input.Quantity
		if err := s.repo.SaveItem(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  input.Quantity,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, actor identity.Actor, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, _, err := s.GetOrCreate(ctx, actor)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, actor identity.Actor, itemID uuid.UUID) error {
	cart, _, err := s.GetOrCreate(ctx, actor)
	if err != nil {
		return err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, item.ID)
}
