package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/sahilchouksey/edtech-checkout/model"
	"github.com/sahilchouksey/edtech-checkout/utils/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	if err := s.SeedDemoUser(); err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}
	return nil
}

// SeedDemoUser creates the account named by DEMO_EMAIL / DEMO_PASSWORD so a
// fresh install can sign in right away.
func (s *Seeder) SeedDemoUser() error {
	email := os.Getenv("DEMO_EMAIL")
	password := os.Getenv("DEMO_PASSWORD")
	if email == "" || password == "" {
		s.log.Debug("DEMO_EMAIL and DEMO_PASSWORD not set, skipping demo user")
		return nil
	}

	var existing model.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		s.log.Debug("demo user already exists", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password, auth.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(&model.User{Email: email, PasswordHash: hash}).Error; err != nil {
		return err
	}

	s.log.Info("created demo user", zap.String("email", email))
	return nil
}
