package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV    string
	LOG_LEVEL string
	PORT      int
	// Database (self-hosted identity provider)
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	JWT_EXPIRY time.Duration
	// Redis Configuration
	REDIS_URL string
	// Identity provider: "local" or "firebase"
	IDENTITY_PROVIDER string
	FIREBASE_API_KEY  string
	FIREBASE_AUTH_URL string
	// Checkout
	COUPON_POLICY string
	COUPON_CODE   string
	COUPON_AMOUNT decimal.Decimal
	CURRENCY      string
	// Payment providers
	STRIPE_SECRET_KEY string
	PAYPAL_CLIENT_ID  string
	PAYPAL_SECRET     string
	PAYPAL_API_BASE   string
	// HTTP
	PUBLIC_BASE_URL     string
	ALLOWED_ORIGINS     string
	STOREFRONT_IDLE_TTL time.Duration
	CRON_ENABLED        bool
}

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	couponAmount := decimal.NewFromInt(20)
	if raw := os.Getenv("COUPON_AMOUNT"); raw != "" {
		couponAmount, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
	}

	goEnv := os.Getenv("GO_ENV")
	logLevel := "debug"
	if goEnv == "production" {
		logLevel = "info"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:    goEnv,
		LOG_LEVEL: getOr("LOG_LEVEL", logLevel),
		PORT:      port,
		// Database
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getOr("DB_HOST", "localhost"),
		DB_PORT:      getOr("DB_PORT", "5432"),
		DB_SSL_MODE:  getOr("DB_SSL_MODE", "disable"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getOr("JWT_ISSUER", "edtech-checkout"),
		JWT_EXPIRY: durationOr("JWT_EXPIRY", 24*time.Hour),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Identity
		IDENTITY_PROVIDER: strings.ToLower(getOr("IDENTITY_PROVIDER", "local")),
		FIREBASE_API_KEY:  os.Getenv("FIREBASE_API_KEY"),
		FIREBASE_AUTH_URL: os.Getenv("FIREBASE_AUTH_URL"),
		// Checkout
		COUPON_POLICY: strings.ToLower(os.Getenv("COUPON_POLICY")),
		COUPON_CODE:   getOr("COUPON_CODE", "edu24"),
		COUPON_AMOUNT: couponAmount,
		CURRENCY:      getOr("CURRENCY", "USD"),
		// Payments
		STRIPE_SECRET_KEY: os.Getenv("STRIPE_SECRET_KEY"),
		PAYPAL_CLIENT_ID:  os.Getenv("PAYPAL_CLIENT_ID"),
		PAYPAL_SECRET:     os.Getenv("PAYPAL_SECRET"),
		PAYPAL_API_BASE:   os.Getenv("PAYPAL_API_BASE"),
		// HTTP
		PUBLIC_BASE_URL:     strings.TrimRight(getOr("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		ALLOWED_ORIGINS:     getOr("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		STOREFRONT_IDLE_TTL: durationOr("STOREFRONT_IDLE_TTL", 30*time.Minute),
		CRON_ENABLED:        os.Getenv("CRON_ENABLED") != "false", // Default to enabled
	}

	return envVariables, nil
}
