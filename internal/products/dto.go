package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cliffindus/marketplace-backend/pkg/db/models"
)

// ProductDTO is the read model returned to controllers.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		OwnerID:     product.OwnerID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func toDTOs(productRows []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(productRows))
	for i := range productRows {
		dtos = append(dtos, *toDTO(&productRows[i]))
	}
	return dtos
}
