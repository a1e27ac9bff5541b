package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "medspa/internal/config"
	intdb "medspa/internal/db"
	"medspa/internal/gateway"
	router "medspa/internal/http"
	"medspa/internal/http/handlers"
	"medspa/internal/realtime"
	"medspa/internal/repositories"
	"medspa/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if err := env.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()
	if err := intdb.EnsureSchema(db); err != nil {
		log.Fatalf("failed to prepare schema: %v", err)
	}

	var idem services.IdempotencyStore = services.NewMemoryIdempotencyStore()
	if rdb := intconfig.ConnectRedis(env); rdb != nil {
		defer rdb.Close()
		idem = services.RedisIdempotencyStore{Client: rdb}
	}

	var gw gateway.PaymentGateway
	if env.StripeSecretKey != "" {
		gw = gateway.NewStripe(env.StripeSecretKey, env.StripeWebhookSecret, nil)
	} else {
		log.Println("warning: STRIPE_SECRET_KEY not set, card payments disabled")
	}

	hub := realtime.NewHub(env.CORSAllowedOrigins)

	paymentsRepo := repositories.PaymentRepository{DB: db}
	catalogRepo := repositories.CatalogRepository{DB: db}
	auditRepo := repositories.AuditRepository{DB: db}
	complianceRepo := repositories.ComplianceRepository{DB: db}

	auditSvc := services.AuditService{Repo: auditRepo, Compliance: complianceRepo}
	hs := &handlers.Handlers{
		Payments: services.PaymentService{
			Payments:    paymentsRepo,
			Catalog:     catalogRepo,
			Gateway:     gw,
			Idempotency: idem,
			Events:      hub,
			Audit:       auditSvc,
			Currency:    env.StripeCurrency,
			Window:      env.IdempotencyWindow,
		},
		Docs: services.DocsService{
			Payments:     paymentsRepo,
			Catalog:      catalogRepo,
			Audit:        auditRepo,
			Compliance:   complianceRepo,
			BusinessName: env.BusinessName,
		},
		Audit:   auditSvc,
		Auth:    services.AuthService{Users: repositories.UserRepository{DB: db}, Secret: []byte(env.JWTSecret), TTL: env.TokenTTL},
		Gateway: gw,
		Hub:     hub,
		DB:      db,
	}

	r := router.NewRouter(env, hs)
	handlers.SetRouter(r)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("server stopped cleanly.")
}
