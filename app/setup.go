package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/edtech-checkout/api"
	"github.com/sahilchouksey/edtech-checkout/config"
	"github.com/sahilchouksey/edtech-checkout/router"
	"github.com/sahilchouksey/edtech-checkout/services/checkout"
	"github.com/sahilchouksey/edtech-checkout/services/cron"
	"github.com/sahilchouksey/edtech-checkout/services/payment/paypalorder"
	"github.com/sahilchouksey/edtech-checkout/services/payment/stripecheckout"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"github.com/sahilchouksey/edtech-checkout/utils"
	"github.com/sahilchouksey/edtech-checkout/utils/cache"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	log, err := utils.NewLogger(getEnv.GO_ENV, getEnv.LOG_LEVEL)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()

	// Redis is optional: without it there is no sign-in lockout
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(ctx, getEnv.REDIS_URL)
		if err != nil {
			log.Warn("redis unavailable, sign-in lockout disabled", zap.Error(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	idp, err := setupIdentity(getEnv, redisCache, log)
	if err != nil {
		return err
	}
	defer idp.Close()

	policy, err := checkout.NewCouponPolicy(getEnv.COUPON_POLICY, getEnv.COUPON_CODE, getEnv.COUPON_AMOUNT)
	if err != nil {
		return err
	}

	deps := storefront.Deps{
		Policy:   policy,
		Currency: getEnv.CURRENCY,
		Logger:   log,
	}
	if getEnv.STRIPE_SECRET_KEY != "" {
		deps.Stripe = stripecheckout.New(getEnv.STRIPE_SECRET_KEY, log)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, Stripe checkout disabled")
	}
	if getEnv.PAYPAL_CLIENT_ID != "" && getEnv.PAYPAL_SECRET != "" {
		delegate, err := paypalorder.New(getEnv.PAYPAL_CLIENT_ID, getEnv.PAYPAL_SECRET, getEnv.PAYPAL_API_BASE, log)
		if err != nil {
			return fmt.Errorf("paypal: %w", err)
		}
		deps.PayPal = delegate
	} else {
		log.Warn("PAYPAL_CLIENT_ID or PAYPAL_SECRET not set, PayPal disabled")
	}

	registry := storefront.NewRegistry(idp.Factory, deps)
	defer registry.CloseAll()

	// Initialize Cron Manager (only if enabled via environment variable)
	if getEnv.CRON_ENABLED {
		cronConfig := cron.Config{
			Storefronts: registry,
			IdleTTL:     getEnv.STOREFRONT_IDLE_TTL,
			Logger:      log,
		}
		if idp.Store != nil {
			cronConfig.DB = idp.Store.DB()
			cronConfig.Tokens = idp.Blacklist
		}

		cronManager := cron.NewCronManager(cronConfig)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", zap.Error(err))
		} else {
			defer cronManager.Stop()
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)

	routes := router.Deps{
		Registry:          registry,
		AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
		PublicBaseURL:     getEnv.PUBLIC_BASE_URL,
		SecureCookies:     getEnv.GO_ENV == "production",
		RateLimitRequests: 100,
		Logger:            log,
	}
	if idp.Store != nil {
		routes.Store = idp.Store
	}
	if redisCache != nil {
		routes.Attempts = redisCache
		routes.Cache = redisCache
	}
	router.SetupRoutes(server.GetEngine(), routes)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("received signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
