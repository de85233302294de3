package models

import (
	"time"

	"github.com/google/uuid"
)

// Shipping is the one-to-one fulfillment record for an order. DeliveryDate is
// only ever set after ShippedDate.
type Shipping struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Address        *string    `gorm:"column:address"`
	City           *string    `gorm:"column:city"`
	State          *string    `gorm:"column:state"`
	PostalCode     *string    `gorm:"column:postal_code"`
	TrackingNumber *string    `gorm:"column:tracking_number"`
	ShippedDate    *time.Time `gorm:"column:shipped_date"`
	DeliveryDate   *time.Time `gorm:"column:delivery_date"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
