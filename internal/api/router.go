// Package api wires together all HTTP routes for the back office.
//
// Route layout:
//   - /auth/session is public so the UI can establish or clear its session
//     cookie before any authenticated call.
//   - Everything else sits behind the session middleware (a no-op when no JWT
//     secret is configured, the expected setup behind an authenticating
//     reverse proxy).
//   - Entity-specific routes (names lookups, details, the invoice list with
//     totals) are registered before the generic CRUD routes so the static
//     segments take precedence over :id.
//   - Generic CRUD routes are registered by iterating the entity registry;
//     adding an entity to the registry is the whole job of exposing it.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/propllia/backoffice/internal/api/crud"
	"github.com/propllia/backoffice/internal/audit"
	"github.com/propllia/backoffice/internal/config"
	"github.com/propllia/backoffice/internal/entity"
	"github.com/propllia/backoffice/internal/middleware"
)

// BackgroundServices holds goroutine-owning resources that must be stopped
// during graceful shutdown. The caller (cmd/server) calls Shutdown after the
// HTTP server has drained.
type BackgroundServices struct {
	rateLimiter *middleware.RateLimiter
}

// Shutdown stops all background goroutines.
func (bg *BackgroundServices) Shutdown() {
	if bg.rateLimiter != nil {
		bg.rateLimiter.Stop()
	}
}

// Server bundles the dependencies shared by the non-CRUD handlers.
type Server struct {
	db    *sqlx.DB
	cfg   *config.Config
	audit *audit.Log
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg *config.Config, db *sqlx.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders())
	router.Use(rateLimiter.Middleware())

	router.GET("/health", healthHandler(db))

	auditLog := audit.NewLog(db)
	s := &Server{db: db, cfg: cfg, audit: auditLog}

	// Public: the UI needs these to establish the cookie in the first place.
	router.POST("/auth/session", s.SetSession)
	router.DELETE("/auth/session", s.ClearSession)

	authed := router.Group("", middleware.SessionAuth(cfg.Auth))

	// Dashboard and reports.
	authed.GET("/dashboard", s.Dashboard)
	authed.GET("/reports/arrears", s.ArrearsReport)
	authed.GET("/reports/profitability", s.ProfitabilityReport)

	// Audit reads.
	authed.GET("/audit/recent", s.AuditRecent)
	authed.GET("/audit/:entity_type/:entity_id", s.AuditForEntity)

	// Entity-specific routes. Static segments win over :id in Gin's tree, but
	// keeping them grouped here makes the precedence explicit.
	authed.GET("/properties/names", s.PropertyNames)
	authed.GET("/properties/:id/detail", s.PropertyDetail)
	authed.GET("/contracts/:id/detail", s.ContractDetail)
	authed.GET("/tenants/names", s.TenantNames)
	authed.GET("/contacts/names", s.ContactNames)
	authed.GET("/sepa-batches/creditors", s.SepaCreditors)
	authed.GET("/invoices/owners", s.InvoiceOwners)
	authed.GET("/invoices/payees", s.InvoicePayees)
	authed.GET("/invoices", s.InvoiceList)

	// CSV export for any registered entity.
	authed.GET("/export/:entity", s.Export)

	// Generic CRUD for every registered entity. Invoices keep the generic
	// mutation routes but use the custom list above.
	handlers := crud.New(db, auditLog)
	for token, schema := range entity.Registry {
		base := "/" + token
		if token != "invoices" {
			authed.GET(base, handlers.List(schema))
		}
		authed.POST(base, handlers.Create(schema))
		authed.GET(base+"/:id", handlers.Get(schema))
		authed.PUT(base+"/:id", handlers.Update(schema))
		authed.DELETE(base+"/:id", handlers.Delete(schema))
	}

	return router, &BackgroundServices{rateLimiter: rateLimiter}
}

// healthHandler reports liveness and database reachability.
func healthHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
