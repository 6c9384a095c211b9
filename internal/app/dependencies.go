package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/service/reconcile"
	"github.com/vladislavdragonenkov/shop/internal/service/report"
)

// insecureFallbackSecret используется, когда JWT-секрет не задан.
// Годится только для локальной разработки.
const insecureFallbackSecret = "shop-dev-secret"

// Dependencies содержит сервисный слой приложения поверх репозиториев.
type Dependencies struct {
	Engine  *reconcile.Engine
	Reports *report.Service
	Tokens  *auth.TokenManager
	Logger  *log.Entry
}

// NewDependencies собирает сервисы из репозиториев и конфигурации.
func NewDependencies(cfg Config, rt *runtimeDependencies, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("jwt secret is not configured, using insecure development default")
		secret = insecureFallbackSecret
	}
	tokens, err := auth.NewTokenManager(secret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	engine := reconcile.NewEngine(
		rt.payments,
		rt.products,
		rt.ledger,
		rt.outboxRepo,
		logger.WithField("component", "reconcile"),
	)
	reports := report.NewService(
		rt.users,
		rt.products,
		rt.payments,
		rt.reviews,
		logger.WithField("component", "report"),
	)

	return &Dependencies{
		Engine:  engine,
		Reports: reports,
		Tokens:  tokens,
		Logger:  logger,
	}, nil
}
