package router

import (
	"github.com/ehr/pharmacy/internal/infrastructure/auth"
	"github.com/ehr/pharmacy/internal/infrastructure/logger"
	"github.com/ehr/pharmacy/internal/interfaces/http/handler"
	"github.com/ehr/pharmacy/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds request bodies; a large purchase invoice is a few KB
const DefaultMaxBodyBytes int64 = 1 << 20

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Catalog  *handler.CatalogHandler
	Purchase *handler.PurchaseHandler
	Sale     *handler.SaleHandler
	Stock    *handler.StockHandler
	Health   *handler.HealthHandler
}

// EngineConfig configures the gin engine
type EngineConfig struct {
	Logger         *zap.Logger
	JWT            *auth.JWTService
	Tracing        middleware.TracingConfig
	Security       middleware.SecurityConfig
	TrustedProxies []string
	MaxBodyBytes   int64
}

// NewEngine builds the gin engine: tracing, request logging, panic
// recovery and security headers on every route, identity on /api/v1.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.Tracing(cfg.Tracing),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Secure(cfg.Security),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	r := NewRouter(engine, WithMiddleware(
		middleware.Identity(cfg.JWT),
		middleware.SpanAnnotator(),
	))
	for _, g := range pharmacyRoutes(h) {
		r.Register(g)
		for _, rt := range g.Routes() {
			cfg.Logger.Debug("route", zap.String("method", rt.Method), zap.String("path", r.Prefix()+rt.Path))
		}
	}
	r.Setup()
	return engine, nil
}

func pharmacyRoutes(h Handlers) []*RouteGroup {
	var groups []*RouteGroup

	if h.Catalog != nil {
		catalog := NewRouteGroup("catalog", "")
		catalog.POST("/products", h.Catalog.RegisterProduct).
			GET("/products", h.Catalog.ListProducts).
			GET("/products/:id", h.Catalog.GetProduct).
			PUT("/chemicals/:name/schedule", h.Catalog.SetChemicalSchedule).
			GET("/chemicals/:name/schedule", h.Catalog.GetChemicalSchedule).
			GET("/schedules/:symbol/policy", h.Catalog.GetPolicy)
		groups = append(groups, catalog)
	}

	if h.Purchase != nil {
		purchases := NewRouteGroup("purchases", "/purchases")
		purchases.POST("", h.Purchase.Create).
			GET("", h.Purchase.List).
			GET("/:id", h.Purchase.GetByID).
			POST("/:id/approve", h.Purchase.Approve).
			POST("/:id/reject", h.Purchase.Reject)
		groups = append(groups, purchases)
	}

	if h.Sale != nil {
		sales := NewRouteGroup("sales", "/sales")
		sales.POST("", h.Sale.Create).
			GET("", h.Sale.List).
			GET("/:id", h.Sale.GetByID)

		returns := NewRouteGroup("returns", "/returns")
		returns.POST("", h.Sale.CreateReturn).
			GET("", h.Sale.ListReturns).
			GET("/:id", h.Sale.GetReturn).
			POST("/:id/approve", h.Sale.ApproveReturn)
		groups = append(groups, sales, returns)
	}

	if h.Stock != nil {
		stock := NewRouteGroup("stock", "/stock")
		stock.GET("/batches/:id", h.Stock.BatchStock).
			GET("/batches/:id/ledger", h.Stock.BatchLedger).
			GET("/batches/:id/verify", h.Stock.VerifyLedger).
			GET("/products/:id", h.Stock.ProductStock).
			GET("/report", h.Stock.Report).
			GET("/near-expiry", h.Stock.NearExpiry).
			POST("/issues", h.Stock.IssueInternal).
			POST("/supplier-returns", h.Stock.ReturnToSupplier)

		disposals := NewRouteGroup("disposals", "/disposals")
		disposals.POST("", h.Stock.CreateDisposal).
			GET("", h.Stock.ListDisposals).
			GET("/:id", h.Stock.GetDisposal)
		groups = append(groups, stock, disposals)
	}

	return groups
}
