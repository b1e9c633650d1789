package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted by the storefront API
type Handlers struct {
	Auth      *handler.AuthHandler
	Profile   *handler.ProfileHandler
	Points    *handler.PointsHandler
	Checkout  *handler.CheckoutHandler
	Order     *handler.OrderHandler
	Webhook   *handler.WebhookHandler
	Marketing *handler.MarketingHandler
	Product   *handler.ProductHandler
	Audit     *handler.AuditHandler
	System    *handler.SystemHandler
}

// Options control the engine-wide middleware stack
type Options struct {
	ServiceName    string
	TracingEnabled bool
	HTTP           config.HTTPConfig
	Logger         *zap.Logger
	Authenticator  *middleware.Authenticator

	// Nil limiters disable the corresponding rate limit
	RateLimiter     *middleware.RateLimiter
	AuthRateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with global middleware, the probes at the
// root and the storefront API under /api/v1.
func NewEngine(h Handlers, opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			return nil, err
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(opts.ServiceName, opts.TracingEnabled))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(corsConfig(opts.HTTP)))
	if opts.RateLimiter != nil {
		engine.Use(middleware.RateLimit(opts.RateLimiter))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	// The webhook sits outside the general body limit; it gets its own
	webhooks := NewDomainGroup("webhooks", "/api/v1/webhooks")
	webhooks.POST("/stripe", middleware.BodyLimit(middleware.WebhookBodyLimit), h.Webhook.HandleStripe)
	webhooks.RegisterRoutes(&engine.RouterGroup)

	r := NewRouter(engine, WithAPIVersion("v1"))
	if opts.HTTP.MaxBodySize > 0 {
		r.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}
	r.Register(Registrars(h, opts.Authenticator, opts.AuthRateLimiter)...)
	r.Setup()

	return engine, nil
}

// Registrars returns the storefront route groups, excluding the webhook
func Registrars(h Handlers, authn *middleware.Authenticator, authLimiter *middleware.RateLimiter) []RouteRegistrar {
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.Info)

	authRoutes := NewDomainGroup("auth", "/auth")
	if authLimiter != nil {
		authRoutes.Use(middleware.AuthRateLimit(authLimiter))
	}
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/admin/login", h.Auth.AdminLogin)
	authRoutes.POST("/logout", authn.Required(), middleware.TraceAttributes(), h.Auth.Logout)

	catalog := NewDomainGroup("catalog", "/products")
	catalog.GET("", h.Product.List)
	catalog.GET("/:id", h.Product.Get)

	// Guests and members share these; an admin session counts as a guest
	shop := NewDomainGroup("shop", "")
	shop.Use(authn.Optional(), middleware.TraceAttributes())
	shop.POST("/points/preview", h.Points.Preview)
	shop.POST("/checkout", h.Checkout.Create)
	shop.POST("/newsletter/subscribe", h.Marketing.Subscribe)
	shop.POST("/newsletter/unsubscribe", h.Marketing.Unsubscribe)
	shop.POST("/contact", h.Marketing.SubmitContact)

	account := NewDomainGroup("account", "/me")
	account.Use(authn.Required(), middleware.RequireRole(identity.RoleCustomer), middleware.TraceAttributes())
	account.GET("", h.Profile.Get)
	account.PUT("", h.Profile.Update)
	account.PUT("/password", h.Profile.ChangePassword)
	points := account.Group("points", "/points")
	points.GET("", h.Points.Summary)
	points.GET("/history", h.Points.History)
	orders := account.Group("orders", "/orders")
	orders.GET("", h.Order.ListMine)
	orders.GET("/:id", h.Order.GetMine)

	admin := NewDomainGroup("admin", "/admin")
	admin.Use(authn.Required(), middleware.RequireRole(identity.RoleAdmin), middleware.TraceAttributes())
	adminOrders := admin.Group("orders", "/orders")
	adminOrders.GET("", h.Order.List)
	adminOrders.GET("/:id", h.Order.Get)
	adminOrders.PATCH("/:id/status", h.Order.UpdateStatus)
	admin.POST("/users/:id/points", h.Points.Adjust)
	admin.GET("/contacts", h.Marketing.ListContacts)
	admin.GET("/audit", h.Audit.List)

	return []RouteRegistrar{system, authRoutes, catalog, shop, account, admin}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
