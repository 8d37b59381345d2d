package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/hqtrung/elearn/config"
	"github.com/hqtrung/elearn/database"
	"github.com/hqtrung/elearn/internal/logger"
	"github.com/hqtrung/elearn/internal/stubserver"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			stubserver.NewGormStore,
			NewServer,
			NewEngine,
		),
		fx.Invoke(ConfigureLogging),
		fx.Invoke(MigrateStore),
		fx.Invoke(StartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func ConfigureLogging(cfg *config.Config) {
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
}

func NewServer(cfg *config.Config, store *stubserver.GormStore) *stubserver.Server {
	opts := []stubserver.Option{}
	if cfg.Auth.Token != "" {
		opts = append(opts, stubserver.WithBearerToken(cfg.Auth.Token))
	}
	if cfg.Auth.UserEmail != "" {
		opts = append(opts, stubserver.WithUser(cfg.Auth.UserEmail))
	}
	return stubserver.New(store, opts...)
}

func NewEngine(srv *stubserver.Server) *gin.Engine {
	return srv.Engine()
}

func MigrateStore(store *stubserver.GormStore) error {
	log.Info().Msg("Running database migrations...")
	if err := store.AutoMigrate(); err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed")
	return nil
}

// StartServer binds the engine to the configured port and ties the HTTP
// server to the fx lifecycle.
func StartServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config) {
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Test backend listening on port %s", port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
