package api

import (
	"log"
	stdhttp "net/http"

	intconfig "medspa/internal/config"
	"medspa/internal/domain"
	h "medspa/internal/http/handlers"
	"medspa/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, hs *h.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"code":   "not_found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	authed := middleware.Auth([]byte(env.JWTSecret))
	staff := middleware.RequireRoles(domain.RoleAdmin, domain.RoleProvider, domain.RoleReception)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", hs.Health)
		api.GET("/db-check", hs.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", hs.Login)
		auth.GET("/me", authed, hs.Me)

		// Stripe calls this without a token; the signature authenticates it.
		api.POST("/webhooks/stripe", hs.StripeWebhook)

		// POS
		api.POST("/pos/quote", authed, staff, hs.QuoteCart)

		// Payments
		payments := api.Group("/payments", authed, staff)
		mountPayments(payments, hs, adminOnly)

		// Audit & compliance
		audit := api.Group("/audit-logs", authed, adminOnly)
		audit.GET("", hs.ListAuditLogs)
		audit.GET("/export", hs.ExportAuditLogs)

		compliance := api.Group("/compliance-alerts", authed, middleware.RequireRoles(domain.RoleAdmin, domain.RoleProvider))
		compliance.GET("", hs.ListComplianceAlerts)
		compliance.GET("/export", hs.ExportComplianceAlerts)
	}

	return r
}

func mountPayments(g *gin.RouterGroup, hs *h.Handlers, adminOnly gin.HandlerFunc) {
	g.GET("", hs.ListPayments)
	g.POST("", hs.CreatePayment)
	g.GET("/events", hs.PaymentEvents)
	g.GET("/:id", hs.GetPayment)
	g.DELETE("/:id", adminOnly, hs.DeletePayment)
	g.POST("/:id/confirm", hs.ConfirmPayment)
	g.POST("/:id/intent", hs.RetryPaymentIntent)
	g.POST("/:id/refund", adminOnly, hs.RefundPayment)
	g.GET("/:id/receipt", hs.GetPaymentReceipt)
}
