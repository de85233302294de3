package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/permissions"
	"github.com/cliffindus/marketplace-backend/internal/visibility"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/pagination"
)

// Service exposes product CRUD gated by the permission evaluator and scoped
// by the visibility resolver.
type Service interface {
	Create(ctx context.Context, actor identity.Actor, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor identity.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor identity.Actor, productID uuid.UUID) error
	Get(ctx context.Context, actor identity.Actor, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, actor identity.Actor, params pagination.Params) ([]ProductDTO, error)
}

// CreateProductInput carries the listing fields. Stock here is the initial
// inventory; after creation only checkout and restock may touch it.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// UpdateProductInput carries partial update fields. A stock value, if sent,
// is dropped for every caller rather than rejected.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
}

type service struct {
	repo Repository
}

// NewService wires a product service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, actor identity.Actor, input CreateProductInput) (*ProductDTO, error) {
	if d := permissions.CanCreateProduct(actor); !d.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		OwnerID:     actor.UserID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toDTO(product), nil
}

func (s *service) Update(ctx context.Context, actor identity.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, visibility.ProductsScope(actor), productID)
	if err != nil {
		return nil, err
	}
	if d := permissions.CanModifyProduct(actor, product); !d.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	// input.Stock is intentionally ignored: stock moves only through
	// checkout decrements and cancellation restock.

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	return toDTO(product), nil
}

func (s *service) Delete(ctx context.Context, actor identity.Actor, productID uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, visibility.ProductsScope(actor), productID)
	if err != nil {
		return err
	}
	if d := permissions.CanModifyProduct(actor, product); !d.Allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
	}
	return s.repo.Delete(ctx, product.ID)
}

func (s *service) Get(ctx context.Context, actor identity.Actor, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, visibility.ProductsScope(actor), productID)
	if err != nil {
		return nil, err
	}
	return toDTO(product), nil
}

func (s *service) List(ctx context.Context, actor identity.Actor, params pagination.Params) ([]ProductDTO, error) {
	productRows, err := s.repo.List(ctx, visibility.ProductsScope(actor), params)
	if err != nil {
		return nil, err
	}
	if extra := pagination.NormalizeLimit(params.Limit); len(productRows) > extra {
		productRows = productRows[:extra]
	}
	return toDTOs(productRows), nil
}
