package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/auth"
	"github.com/mamadbah2/canebill/internal/server/handlers"
	"github.com/mamadbah2/canebill/internal/server/middleware"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Bills    *handlers.BillHandler
	Farmers  *handlers.FarmerHandler
	Prices   *handlers.PriceHandler
	Settings *handlers.SettingsHandler
	Shares   *handlers.ShareHandler
	Activity *handlers.ActivityHandler
	Reports  *handlers.ReportHandler
}

// Options configures the engine's ambient middleware. A nil Metrics disables
// request instrumentation and the /metrics endpoint.
type Options struct {
	Metrics *middleware.Metrics
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, tokens *auth.TokenManager, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Metrics.Gatherer(), promhttp.HandlerOpts{})))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/seed", h.Auth.Seed)
	api.GET("/share/:token", h.Shares.Validate)
	api.GET("/share/:token/bills", h.Shares.Bills)

	secured := api.Group("")
	secured.Use(middleware.RequireAuth(tokens))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)

	secured.GET("/users", h.Users.List)
	secured.POST("/users", h.Users.Create)
	secured.PUT("/users/:id", h.Users.Update)
	secured.DELETE("/users/:id", h.Users.Delete)

	secured.GET("/bills", h.Bills.List)
	secured.POST("/bills", h.Bills.Create)
	secured.GET("/bills/check-duplicate/:billNumber", h.Bills.CheckDuplicate)
	secured.GET("/bills/export.csv", h.Reports.ExportCSV)
	secured.GET("/bills/export.pdf", h.Reports.ExportPDF)
	secured.PUT("/bills/:id", h.Bills.Update)
	secured.DELETE("/bills/:id", h.Bills.Delete)

	secured.GET("/farmers", h.Farmers.List)
	secured.POST("/farmers", h.Farmers.Create)
	secured.PUT("/farmers/:id", h.Farmers.Update)
	secured.DELETE("/farmers/:id", h.Farmers.Delete)

	secured.GET("/prices", h.Prices.List)
	secured.POST("/prices", h.Prices.Upsert)
	secured.GET("/price-check", h.Prices.Check)
	secured.DELETE("/prices/:id", h.Prices.Delete)

	secured.GET("/settings", h.Settings.Get)
	secured.PUT("/settings", h.Settings.Update)

	secured.POST("/share", h.Shares.Create)

	secured.GET("/activity-logs", h.Activity.List)
	secured.DELETE("/activity-logs/prune", h.Activity.Prune)

	secured.GET("/stats", h.Reports.Stats)

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))

	return r
}
