package permissions

import (
	"testing"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

func verifiedActor(role enums.Role) identity.Actor {
	return identity.Actor{UserID: uuid.New(), Role: role, IsVerified: true}
}

func TestCanCreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		actor   identity.Actor
		allowed bool
	}{
		{"anonymous", identity.Anonymous(), false},
		{"verified wholesaler", verifiedActor(enums.RoleWholesaler), true},
		{"verified retailer", verifiedActor(enums.RoleRetailer), true},
		{"unverified retailer", identity.Actor{UserID: uuid.New(), Role: enums.RoleRetailer}, false},
		{"consumer", verifiedActor(enums.RoleConsumer), false},
		{"admin", identity.Actor{UserID: uuid.New(), Role: enums.RoleAdmin, AdminTier: enums.AdminTierAdmin}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := CanCreateProduct(tc.actor)
			if d.Allowed != tc.allowed {
				t.Errorf("allowed = %v, want %v (reason %q)", d.Allowed, tc.allowed, d.Reason)
			}
			if !d.Allowed && d.Reason == "" {
				t.Error("denial without reason")
			}
		})
	}
}

func TestCanModifyProduct(t *testing.T) {
	owner := verifiedActor(enums.RoleWholesaler)
	product := &models.Product{ID: uuid.New(), OwnerID: owner.UserID}

	if d := CanModifyProduct(owner, product); !d.Allowed {
		t.Errorf("owner denied: %s", d.Reason)
	}

	other := verifiedActor(enums.RoleWholesaler)
	if d := CanModifyProduct(other, product); d.Allowed {
		t.Error("non-owner seller should be denied")
	}

	admin := identity.Actor{UserID: uuid.New(), Role: enums.RoleAdmin, IsVerified: true, AdminTier: enums.AdminTierAdmin}
	if d := CanModifyProduct(admin, product); !d.Allowed {
		t.Errorf("admin denied: %s", d.Reason)
	}

	unverifiedOwner := identity.Actor{UserID: owner.UserID, Role: enums.RoleWholesaler}
	if d := CanModifyProduct(unverifiedOwner, product); d.Allowed {
		t.Error("unverified owner should be denied")
	}

	if d := CanModifyProduct(owner, nil); d.Allowed {
		t.Error("nil product should be denied")
	}
}

func TestCanCreateOrder(t *testing.T) {
	if d := CanCreateOrder(verifiedActor(enums.RoleConsumer)); !d.Allowed {
		t.Errorf("verified consumer denied: %s", d.Reason)
	}
	if d := CanCreateOrder(identity.Actor{UserID: uuid.New(), Role: enums.RoleConsumer}); d.Allowed {
		t.Error("unverified consumer should be denied")
	}
	if d := CanCreateOrder(verifiedActor(enums.RoleWholesaler)); d.Allowed {
		t.Error("wholesaler should be denied")
	}
	if d := CanCreateOrder(identity.Anonymous()); d.Allowed {
		t.Error("anonymous should be denied")
	}
}

func TestAdminPermissionChecks(t *testing.T) {
	super := identity.Actor{UserID: uuid.New(), Role: enums.RoleAdmin, IsVerified: true, AdminTier: enums.AdminTierSuperAdmin}
	regular := identity.Actor{UserID: uuid.New(), Role: enums.RoleAdmin, IsVerified: true, AdminTier: enums.AdminTierAdmin}
	fullPerms := &models.AdminPermission{
		CanManageUsers:         true,
		CanViewRoleRequests:    true,
		CanApproveRoleRequests: true,
	}

	if d := CanManageUsers(regular, fullPerms); !d.Allowed {
		t.Errorf("admin with flag denied: %s", d.Reason)
	}
	if d := CanManageUsers(regular, &models.AdminPermission{}); d.Allowed {
		t.Error("admin without flag should be denied")
	}
	if d := CanManageUsers(regular, nil); d.Allowed {
		t.Error("missing permission row should deny")
	}
	if d := CanManageUsers(verifiedActor(enums.RoleConsumer), fullPerms); d.Allowed {
		t.Error("consumer should be denied")
	}

	if d := CanApproveUpgrades(super, fullPerms); !d.Allowed {
		t.Errorf("super admin denied: %s", d.Reason)
	}
	if d := CanApproveUpgrades(regular, fullPerms); d.Allowed {
		t.Error("regular admin tier cannot approve upgrades")
	}
	if d := CanViewUpgrades(regular, fullPerms); !d.Allowed {
		t.Errorf("admin with view flag denied: %s", d.Reason)
	}
}
