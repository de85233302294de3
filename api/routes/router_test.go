package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/internal/auth"
	"github.com/cliffindus/marketplace-backend/internal/cart"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/orders"
	"github.com/cliffindus/marketplace-backend/internal/products"
	"github.com/cliffindus/marketplace-backend/internal/users"
	pkgauth "github.com/cliffindus/marketplace-backend/pkg/auth"
	"github.com/cliffindus/marketplace-backend/pkg/auth/session"
	"github.com/cliffindus/marketplace-backend/pkg/config"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
	"github.com/cliffindus/marketplace-backend/pkg/pagination"
	"github.com/cliffindus/marketplace-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, accessToken string) error {
	return nil
}

type stubUserService struct{}

func (stubUserService) Register(ctx context.Context, input users.RegisterInput) (*models.User, error) {
	panic("unimplemented")
}

func (stubUserService) Get(ctx context.Context, actor identity.Actor, userID uuid.UUID) (*models.User, error) {
	panic("unimplemented")
}

func (stubUserService) SetVerification(ctx context.Context, actor identity.Actor, userID uuid.UUID, verified bool) (*models.User, error) {
	panic("unimplemented")
}

func (stubUserService) RequestUpgrade(ctx context.Context, actor identity.Actor, input users.UpgradeInput) (*models.RoleUpgradeRequest, error) {
	panic("unimplemented")
}

func (stubUserService) ListUpgrades(ctx context.Context, actor identity.Actor, status *enums.UpgradeStatus) ([]models.RoleUpgradeRequest, error) {
	return nil, nil
}

func (stubUserService) DecideUpgrade(ctx context.Context, actor identity.Actor, requestID uuid.UUID, approve bool, comment *string) (*models.RoleUpgradeRequest, error) {
	panic("unimplemented")
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, actor identity.Actor, input products.CreateProductInput) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) Update(ctx context.Context, actor identity.Actor, productID uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) Delete(ctx context.Context, actor identity.Actor, productID uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductService) Get(ctx context.Context, actor identity.Actor, productID uuid.UUID) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) List(ctx context.Context, actor identity.Actor, params pagination.Params) ([]products.ProductDTO, error) {
	return []products.ProductDTO{}, nil
}

type stubCartService struct{}

func (stubCartService) GetOrCreate(ctx context.Context, actor identity.Actor) (*models.Cart, []models.CartItem, error) {
	return &models.Cart{}, nil, nil
}

func (stubCartService) List(ctx context.Context, actor identity.Actor) ([]models.Cart, error) {
	return []models.Cart{}, nil
}

func (stubCartService) AddItem(ctx context.Context, actor identity.Actor, input cart.AddItemInput) (*models.CartItem, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItem(ctx context.Context, actor identity.Actor, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, actor identity.Actor, itemID uuid.UUID) error {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Execute(ctx context.Context, actor identity.Actor) (*models.Order, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, actor identity.Actor, params pagination.Params) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) ListShipping(ctx context.Context, actor identity.Actor) ([]models.Shipping, error) {
	return nil, nil
}

func (stubOrdersService) Transition(ctx context.Context, actor identity.Actor, orderID uuid.UUID, target enums.OrderStatus, fields orders.ShippingFields) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Stats(ctx context.Context, actor identity.Actor) (*orders.OrderStats, error) {
	return &orders.OrderStats{ByStatus: map[enums.OrderStatus]int64{}}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) Balance(ctx context.Context, actor identity.Actor) (int, error) {
	return 0, nil
}

func (stubLedgerService) History(ctx context.Context, actor identity.Actor) ([]models.CreditTransaction, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
			RefreshTokenDays:  7,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionChecker{},
		stubAuthService{},
		stubUserService{},
		stubProductService{},
		stubCartService{},
		stubCheckoutService{},
		stubOrdersService{},
		stubLedgerService{},
		nil,
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role, tier enums.AdminTier) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:     uuid.New(),
		Role:       role,
		IsVerified: true,
		AdminTier:  tier,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleConsumer, enums.AdminTierNone))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart fetch got %d", resp.Code)
	}
}

func TestProductListIsPubliclyBrowsable(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous product list got %d", resp.Code)
	}
}

func TestProductMutationsRequireAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous product create got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/stats", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleConsumer, enums.AdminTierNone))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/stats", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin, enums.AdminTierAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCreditsRequireAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/balance", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/credits/balance", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleConsumer, enums.AdminTierNone))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for balance got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Marketplace-Env"); env != "test" {
		t.Fatalf("expected env header got %q", env)
	}
}
