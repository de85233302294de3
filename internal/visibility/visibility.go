package visibility

import (
	"gorm.io/gorm"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// Scope narrows a query to the rows an actor may see. Every list and single
// lookup applies the matching scope before any object-level permission check,
// so hidden rows are indistinguishable from absent ones.
type Scope func(*gorm.DB) *gorm.DB

func none(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

func all(db *gorm.DB) *gorm.DB {
	return db
}

// ProductsScope resolves the product tier for the actor.
//
// Admins see everything. Wholesalers see only their own catalog. Retailers
// browse verified wholesalers. Everyone else, signed in or not, gets the
// public tier: active products of verified retailers.
func ProductsScope(actor identity.Actor) Scope {
	switch {
	case actor.IsAdmin():
		return all
	case actor.Role == enums.RoleWholesaler && !actor.IsAnonymous():
		ownerID := actor.UserID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("products.owner_id = ?", ownerID)
		}
	case actor.Role == enums.RoleRetailer && !actor.IsAnonymous():
		return sellerCatalogScope(enums.RoleWholesaler)
	default:
		return sellerCatalogScope(enums.RoleRetailer)
	}
}

func sellerCatalogScope(ownerRole enums.Role) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("products.is_active = ?", true).
			Where(
				"products.owner_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Table("users").
					Select("id").
					Where("role = ? AND is_verified = ?", ownerRole, true),
			)
	}
}

// OrdersScope resolves order visibility. Sellers see orders that contain at
// least one of their product lines; consumers see their own orders. Anyone
// unverified and non-admin sees nothing.
func OrdersScope(actor identity.Actor) Scope {
	switch {
	case actor.IsAdmin():
		return all
	case actor.IsAnonymous() || !actor.IsVerified:
		return none
	case actor.Role.IsSeller():
		ownerID := actor.UserID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(
				"orders.id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Table("order_items").
					Select("order_items.order_id").
					Joins("JOIN products ON products.id = order_items.product_id").
					Where("products.owner_id = ?", ownerID),
			)
		}
	case actor.Role == enums.RoleConsumer:
		userID := actor.UserID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("orders.user_id = ?", userID)
		}
	default:
		return none
	}
}

// CartsScope limits carts to their owning verified consumer; admins see all.
func CartsScope(actor identity.Actor) Scope {
	switch {
	case actor.IsAdmin():
		return all
	case actor.Role == enums.RoleConsumer && actor.IsVerified && !actor.IsAnonymous():
		userID := actor.UserID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("carts.user_id = ?", userID)
		}
	default:
		return none
	}
}

// ShippingScope limits shipping records to those tied to the actor's own
// orders; admins see all.
func ShippingScope(actor identity.Actor) Scope {
	switch {
	case actor.IsAdmin():
		return all
	case actor.Role == enums.RoleConsumer && actor.IsVerified && !actor.IsAnonymous():
		userID := actor.UserID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(
				"shippings.order_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Table("orders").
					Select("id").
					Where("user_id = ?", userID),
			)
		}
	default:
		return none
	}
}
