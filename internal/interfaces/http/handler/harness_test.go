package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	appaudit "github.com/storefront/backend/internal/application/audit"
	appbilling "github.com/storefront/backend/internal/application/billing"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	appidentity "github.com/storefront/backend/internal/application/identity"
	apployalty "github.com/storefront/backend/internal/application/loyalty"
	appmarketing "github.com/storefront/backend/internal/application/marketing"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// fakeGateway opens a deterministic hosted checkout
type fakeGateway struct {
	requests []apporder.GatewayCheckoutRequest
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req apporder.GatewayCheckoutRequest) (*apporder.GatewaySession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &apporder.GatewaySession{
		ID:        "cs_test_" + req.OrderID.String(),
		URL:       "https://checkout.example.com/" + req.OrderID.String(),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

// fakeVerifier accepts the signature "valid" and decodes the payload as an event
type fakeVerifier struct{}

func (fakeVerifier) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if signature != "valid" {
		return stripe.Event{}, shared.ErrInvalidSignature
	}
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, err
	}
	return event, nil
}

type harness struct {
	db       *persistence.Database
	tiers    *loyalty.TierTable
	sessions *cache.InMemorySessionStore
	gateway  *fakeGateway
	auth     *appidentity.AuthService
	router   *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := persistencetest.NewSQLite(t)
	cfg := loyalty.DefaultPointsConfig()
	tiers := loyalty.DefaultTierTable()
	scope := persistence.NewGormTransactionScope(db.DB)
	users := persistence.NewGormUserRepository(db.DB)
	accounts := persistence.NewGormAccountRepository(db.DB)
	ledger := persistence.NewGormLedgerRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	auditLog := persistence.NewGormAuditLogRepository(db.DB)

	h := &harness{
		db:       db,
		tiers:    tiers,
		sessions: cache.NewInMemorySessionStore(),
		gateway:  &fakeGateway{},
	}
	jwt := auth.NewJWTService(config.JWTConfig{Secret: "handler-test-secret", Issuer: "storefront-test"})
	hasher := persistencetest.PlainHasher{}

	h.auth = appidentity.NewAuthService(appidentity.AuthServiceDeps{
		Users:    users,
		Admins:   persistence.NewGormAdminUserRepository(db.DB),
		Scope:    scope,
		Sessions: h.sessions,
		Tokens:   jwt,
		Hasher:   hasher,
		Points:   cfg,
		Tiers:    tiers,
	}, appidentity.DefaultAuthServiceConfig())

	settlement := apporder.NewSettlementService(scope, cfg, tiers, nil)
	orderService := apporder.NewOrderService(orders, scope, tiers, nil, nil)
	webhooks := appbilling.NewStripeWebhookService(appbilling.StripeWebhookServiceConfig{
		Verifier:    fakeVerifier{},
		Settler:     settlement,
		Canceller:   orderService,
		Orders:      orders,
		Idempotency: cache.NewInMemoryIdempotencyStore(),
	})

	authH := NewAuthHandler(h.auth)
	profileH := NewProfileHandler(appidentity.NewUserService(users, accounts, hasher, nil))
	pointsH := NewPointsHandler(apployalty.NewPointsService(accounts, ledger, orders, scope, cfg, tiers, "usd", nil))
	checkoutH := NewCheckoutHandler(apporder.NewCheckoutService(scope, products, h.gateway, cfg, "usd"))
	orderH := NewOrderHandler(orderService)
	webhookH := NewWebhookHandler(webhooks)
	marketingH := NewMarketingHandler(
		appmarketing.NewNewsletterService(scope, cfg, tiers, nil, nil),
		appmarketing.NewContactService(persistence.NewGormContactRequestRepository(db.DB), nil),
	)
	productH := NewProductHandler(appcatalog.NewProductService(products, "usd"))
	auditH := NewAuditHandler(appaudit.NewAuditService(auditLog))

	authn := middleware.NewAuthenticator(jwt, h.sessions, zap.NewNop())
	r := gin.New()
	r.Use(middleware.RequestID())

	r.POST("/auth/register", authH.Register)
	r.POST("/auth/login", authH.Login)
	r.POST("/auth/admin/login", authH.AdminLogin)
	r.POST("/auth/logout", authn.Required(), authH.Logout)

	r.GET("/products", productH.List)
	r.GET("/products/:id", productH.Get)

	optional := r.Group("", authn.Optional())
	optional.POST("/points/preview", pointsH.Preview)
	optional.POST("/checkout", checkoutH.Create)
	optional.POST("/newsletter/subscribe", marketingH.Subscribe)
	optional.POST("/contact", marketingH.SubmitContact)
	r.POST("/newsletter/unsubscribe", marketingH.Unsubscribe)
	r.POST("/webhooks/stripe", middleware.BodyLimit(middleware.WebhookBodyLimit), webhookH.HandleStripe)

	me := r.Group("/me", authn.Required(), middleware.RequireRole(identity.RoleCustomer))
	me.GET("", profileH.Get)
	me.PUT("", profileH.Update)
	me.PUT("/password", profileH.ChangePassword)
	me.GET("/points", pointsH.Summary)
	me.GET("/points/history", pointsH.History)
	me.GET("/orders", orderH.ListMine)
	me.GET("/orders/:id", orderH.GetMine)

	admin := r.Group("/admin", authn.Required(), middleware.RequireRole(identity.RoleAdmin))
	admin.GET("/orders", orderH.List)
	admin.GET("/orders/:id", orderH.Get)
	admin.PATCH("/orders/:id/status", orderH.UpdateStatus)
	admin.POST("/users/:id/points", pointsH.Adjust)
	admin.GET("/contacts", marketingH.ListContacts)
	admin.GET("/audit", auditH.List)

	h.router = r
	return h
}

// member registers a customer through the API service and returns its id and token
func (h *harness) member(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()
	result, err := h.auth.Register(context.Background(), appidentity.RegisterInput{
		Email:    email,
		Password: "password123",
		Name:     "Member",
	})
	require.NoError(t, err)
	return result.User.ID, result.AccessToken
}

// admin creates an operator and logs it in
func (h *harness) admin(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	ctx := context.Background()
	admin, err := identity.NewAdminUser("ops@example.com", "adminpass123", "Ops", persistencetest.PlainHasher{})
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormAdminUserRepository(h.db.DB).Save(ctx, admin))

	result, err := h.auth.AdminLogin(ctx, appidentity.LoginInput{Email: "ops@example.com", Password: "adminpass123"})
	require.NoError(t, err)
	return admin.ID, result.AccessToken
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and, when out is non-nil, its data field
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out), w.Body.String())
	}
	return envelope.Response
}

func createProduct(t *testing.T, h *harness, sku string, price int64) uuid.UUID {
	t.Helper()
	return persistencetest.CreateProduct(t, h.db, sku, price).ID
}
