package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/verigate/verigate/api"
	"github.com/verigate/verigate/config"
	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/flow"
	"github.com/verigate/verigate/logger"
	"github.com/verigate/verigate/mailer"
	"github.com/verigate/verigate/oauth"
	"github.com/verigate/verigate/otc"
	"github.com/verigate/verigate/persistence"
	"github.com/verigate/verigate/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("starting verigate authentication service",
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.DBType),
	)

	repo, err := persistence.NewStorage(cfg.DBType, cfg.DSN, nil)
	if err != nil {
		logger.Log.Fatal("failed to initialize storage", zap.Error(err))
	}

	var revocations domain.RevocationStorage = repo
	if cfg.RevocationStore == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		revocations = persistence.NewRedisRevocationStore(client, "", session.RevokedRetention)
		logger.Log.Info("using redis revocation store", zap.String("addr", cfg.RedisAddr))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(cfg.JWTSecret, revocations)
	sessions.StartCompaction(ctx, time.Hour, logger.Log)

	hasher := flow.NewBcryptHasher(0)
	codes := otc.NewEngine(repo)
	mail := mailer.NewSMTPMailer(cfg.SMTP)

	registration := flow.NewRegistrationManager(repo, codes, mail, hasher, logger.Log)
	login := flow.NewLoginManager(repo, hasher, sessions)
	profile := flow.NewProfileManager(repo, hasher)
	recovery := flow.NewRecoveryManager(repo, codes, mail, hasher, logger.Log)
	social := flow.NewSocialManager(repo, sessions, logger.Log)

	h := api.NewHandler(registration, login, profile, recovery, social, codes, sessions, repo)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e.Group("/api/auth"))

	if len(cfg.OAuthProviders) > 0 {
		providers, err := oauth.NewManager(ctx, cfg.OAuthProviders)
		if err != nil {
			logger.Log.Fatal("failed to initialize oauth providers", zap.Error(err))
		}
		oh := api.NewOAuthHandler(providers, h, cfg.FrontendURL)
		oh.RegisterRoutes(e.Group("/auth"))
	}

	logger.Log.Info("server is starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Log.Fatal("server failed to start", zap.Error(err))
	}
}
