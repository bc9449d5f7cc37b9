package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sporthub/venue-booking/internal/auth"
	"github.com/sporthub/venue-booking/internal/config"
	"github.com/sporthub/venue-booking/internal/database"
	"github.com/sporthub/venue-booking/internal/handler"
	"github.com/sporthub/venue-booking/internal/middleware"
	"github.com/sporthub/venue-booking/internal/queue"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/response"
	"github.com/sporthub/venue-booking/internal/router"
	"github.com/sporthub/venue-booking/internal/token"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	codec, err := token.New(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("init token codec")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	venues := repository.NewVenueRepo(db)
	locations := repository.NewLocationRepo(db)

	svc, err := auth.NewService(users, sessions, codec, cfg.AccessTTL, cfg.RefreshTTL, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("init session service")
	}

	rdb := config.NewRedisClient()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.ErrorHandler(cfg.Env)

	router.RegisterRoutes(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, svc),
		Users:    handler.NewUserHandler(cfg, users, sessions),
		Venues:   handler.NewVenueHandler(cfg, venues),
		Location: handler.NewLocationHandler(locations),
		Gate:     middleware.NewAuth(codec, users, cfg.AccessCookieName),
	}, rdb)

	// Audit consumer runs for the lifetime of the process and reconnects
	// on broker failures by itself.
	go func() {
		if err := queue.StartAuditConsumer(cfg.AmqpURL); err != nil {
			log.Error().Err(err).Msg("audit consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting sporthub api")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}
