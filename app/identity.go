package app

import (
	"errors"
	"fmt"

	"github.com/sahilchouksey/edtech-checkout/config"
	"github.com/sahilchouksey/edtech-checkout/database"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/sahilchouksey/edtech-checkout/services/identity/firebase"
	"github.com/sahilchouksey/edtech-checkout/services/identity/local"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"github.com/sahilchouksey/edtech-checkout/utils/auth"
	"github.com/sahilchouksey/edtech-checkout/utils/cache"
	"go.uber.org/zap"
)

// identityStack is the configured identity provider and what it owns
type identityStack struct {
	Factory   storefront.ProviderFactory
	Store     *database.GORMStore    // local provider only
	Blacklist *auth.BlacklistService // local provider only
}

func (s identityStack) Close() {
	if s.Store != nil {
		s.Store.Close()
	}
}

func setupIdentity(env *config.EnviornmentVariable, redisCache *cache.RedisCache, log *zap.Logger) (identityStack, error) {
	switch env.IDENTITY_PROVIDER {
	case "firebase":
		return setupFirebase(env, log)
	case "local":
		return setupLocal(env, redisCache, log)
	default:
		return identityStack{}, fmt.Errorf("unknown IDENTITY_PROVIDER %q", env.IDENTITY_PROVIDER)
	}
}

func setupFirebase(env *config.EnviornmentVariable, log *zap.Logger) (identityStack, error) {
	if env.FIREBASE_API_KEY == "" {
		return identityStack{}, errors.New("FIREBASE_API_KEY is required for the firebase identity provider")
	}

	client := firebase.NewClient(firebase.Config{
		APIKey:  env.FIREBASE_API_KEY,
		BaseURL: env.FIREBASE_AUTH_URL,
	})
	log.Info("identity provider: firebase")

	return identityStack{
		Factory: func() identity.Provider { return firebase.NewProvider(client, log) },
	}, nil
}

func setupLocal(env *config.EnviornmentVariable, redisCache *cache.RedisCache, log *zap.Logger) (identityStack, error) {
	if env.JWT_SECRET == "" {
		return identityStack{}, errors.New("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM database connection
	store, err := database.StartGORM(log)
	if err != nil {
		log.Error("check whether Postgres is running (make docker-up or make db-up)")
		return identityStack{}, err
	}

	if err := store.Init(); err != nil {
		store.Close()
		return identityStack{}, fmt.Errorf("running migrations: %w", err)
	}

	if err := database.NewSeeder(store.DB(), log).SeedAll(); err != nil {
		log.Warn("seeding failed", zap.Error(err))
	}

	blacklist := auth.NewBlacklistService(store.DB())
	opts := local.Options{
		Users: local.NewGormUsers(store.DB()),
		Tokens: auth.NewJWTManager(auth.JWTConfig{
			Secret: env.JWT_SECRET,
			Expiry: env.JWT_EXPIRY,
			Issuer: env.JWT_ISSUER,
		}),
		Revoker: blacklist,
		Logger:  log,
	}
	if redisCache != nil {
		opts.Limiter = local.NewRedisLimiter(redisCache)
	}

	backend := local.NewBackend(opts)
	log.Info("identity provider: local")

	return identityStack{
		Factory:   func() identity.Provider { return backend.NewClient() },
		Store:     store,
		Blacklist: blacklist,
	}, nil
}
