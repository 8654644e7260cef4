package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *zap.Logger
}

func NewAPIServer(listenAddress string, log *zap.Logger) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:               "edtech-checkout",
			DisableStartupMessage: true,
		}),
		listenAddress: listenAddress,
		log:           log,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run blocks until the server stops
func (s *APIServer) Run() error {
	s.log.Info("starting API server", zap.String("listen", s.listenAddress))
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for open requests until ctx expires
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.app.ShutdownWithContext(ctx)
}
