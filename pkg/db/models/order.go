package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// Order is created only by the checkout engine. TotalPrice is immutable once
// set at creation.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	Items      []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipping   *Shipping         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User       *User             `gorm:"foreignKey:UserID"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
