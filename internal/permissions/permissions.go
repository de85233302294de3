package permissions

import (
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// Decision is the result of evaluating one permission. Reason is only set
// when the decision denies, and is safe to surface to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// IsVerifiedAndActive requires an authenticated caller that is either an
// admin or carries the verified flag.
func IsVerifiedAndActive(actor identity.Actor) Decision {
	if actor.IsAnonymous() {
		return deny("authentication required")
	}
	if actor.IsAdmin() {
		return allow()
	}
	if !actor.IsVerified {
		return deny("account is not verified")
	}
	return allow()
}

// CanCreateProduct allows admins and verified sellers.
func CanCreateProduct(actor identity.Actor) Decision {
	if actor.IsAnonymous() {
		return deny("authentication required")
	}
	if actor.IsAdmin() {
		return allow()
	}
	if !actor.Role.IsSeller() {
		return deny("only retailers and wholesalers can list products")
	}
	if !actor.IsVerified {
		return deny("seller account is not verified")
	}
	return allow()
}

// CanModifyProduct allows the owning seller or an admin.
func CanModifyProduct(actor identity.Actor, product *models.Product) Decision {
	if actor.IsAnonymous() {
		return deny("authentication required")
	}
	if product == nil {
		return deny("product is required")
	}
	if actor.IsAdmin() {
		return allow()
	}
	if product.OwnerID == actor.UserID {
		return CanCreateProduct(actor)
	}
	return deny("only the product owner can modify it")
}

// CanCreateOrder allows verified consumers only. Sellers buy nothing here
// and admins act on existing orders, not new ones.
func CanCreateOrder(actor identity.Actor) Decision {
	if actor.IsAnonymous() {
		return deny("authentication required")
	}
	if actor.Role != enums.RoleConsumer {
		return deny("only consumers can place orders")
	}
	if !actor.IsVerified {
		return deny("account is not verified")
	}
	return allow()
}

// CanManageUsers requires an elevated admin with the manage-users flag.
func CanManageUsers(actor identity.Actor, perms *models.AdminPermission) Decision {
	if d := requireElevatedAdmin(actor); !d.Allowed {
		return d
	}
	if perms == nil || !perms.CanManageUsers {
		return deny("missing user management permission")
	}
	return allow()
}

// CanViewUpgrades requires an elevated admin with the view flag.
func CanViewUpgrades(actor identity.Actor, perms *models.AdminPermission) Decision {
	if d := requireElevatedAdmin(actor); !d.Allowed {
		return d
	}
	if perms == nil || !perms.CanViewRoleRequests {
		return deny("missing role request view permission")
	}
	return allow()
}

// CanApproveUpgrades requires a super admin with the approve flag.
func CanApproveUpgrades(actor identity.Actor, perms *models.AdminPermission) Decision {
	if d := requireElevatedAdmin(actor); !d.Allowed {
		return d
	}
	if actor.AdminTier != enums.AdminTierSuperAdmin {
		return deny("approving role requests requires the super admin tier")
	}
	if perms == nil || !perms.CanApproveRoleRequests {
		return deny("missing role request approval permission")
	}
	return allow()
}

func requireElevatedAdmin(actor identity.Actor) Decision {
	if actor.IsAnonymous() {
		return deny("authentication required")
	}
	if !actor.IsAdmin() {
		return deny("admin role required")
	}
	if !actor.AdminTier.IsElevated() {
		return deny("elevated admin tier required")
	}
	return allow()
}
