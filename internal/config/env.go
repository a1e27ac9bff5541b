package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-only-jwt-secret"

type Env struct {
	AppAddr      string
	GinMode      string
	BusinessName string

	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSAllowedOrigins []string
	IdempotencyWindow  time.Duration
	TokenTTL           time.Duration
}

// LoadEnv reads .env (if any) then the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	env := Env{
		AppAddr:             getenv("APP_ADDR", ":8080"),
		GinMode:             getenv("GIN_MODE", ""),
		BusinessName:        getenv("BUSINESS_NAME", "Medical Spa"),
		DBUser:              getenv("DB_USER", "root"),
		DBPassword:          getenv("DB_PASSWORD", ""),
		DBHost:              getenv("DB_HOST", "127.0.0.1:3306"),
		DBName:              getenv("DB_NAME", "medspa"),
		JWTSecret:           getenv("JWT_SECRET", ""),
		StripeSecretKey:     getenv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getenv("STRIPE_WEBHOOK_SECRET", ""),
		StripeCurrency:      strings.ToLower(getenv("STRIPE_CURRENCY", "usd")),
		RedisAddr:           getenv("REDIS_ADDR", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		IdempotencyWindow:   30 * time.Second,
		TokenTTL:            12 * time.Hour,
		CORSAllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:3001",
			"http://127.0.0.1:3001",
		},
	}

	if v := getenv("REDIS_DB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			env.RedisDB = n
		}
	}
	if v := getenv("IDEMPOTENCY_WINDOW", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			env.IdempotencyWindow = d
		}
	}
	if v := getenv("TOKEN_TTL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			env.TokenTTL = d
		}
	}
	if v := getenv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		origins := []string{}
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			env.CORSAllowedOrigins = origins
		}
	}

	if env.JWTSecret == "" {
		log.Printf("warning: JWT_SECRET not set, using an insecure development secret")
		env.JWTSecret = devJWTSecret
	}

	return env
}

// Validate rejects settings that must never reach production.
func (e Env) Validate() error {
	if e.GinMode == "release" && (e.JWTSecret == "" || e.JWTSecret == devJWTSecret) {
		return errors.New("JWT_SECRET must be set when GIN_MODE=release")
	}
	return nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
