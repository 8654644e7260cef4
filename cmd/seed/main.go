package main

import (
	"flag"
	"os"

	"github.com/sahilchouksey/edtech-checkout/config"
	"github.com/sahilchouksey/edtech-checkout/database"
	"github.com/sahilchouksey/edtech-checkout/utils"
	"go.uber.org/zap"
)

// Migrates the identity database and creates the demo account named by
// DEMO_EMAIL / DEMO_PASSWORD.
func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and skip seeding")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		panic(err)
	}
	env, err := config.Get()
	if err != nil {
		panic(err)
	}

	log, err := utils.NewLogger(env.GO_ENV, env.LOG_LEVEL)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, err := database.StartGORM(log)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Error("migrations failed", zap.Error(err))
		os.Exit(1)
	}
	if err := store.HealthCheck(); err != nil {
		log.Error("database health check failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("migrations completed")

	if *migrateOnly {
		return
	}

	if err := database.NewSeeder(store.DB(), log).SeedAll(); err != nil {
		log.Error("seeding failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("seeding completed")
}
