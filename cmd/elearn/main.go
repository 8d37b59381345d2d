package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/hqtrung/elearn/config"
	"github.com/hqtrung/elearn/internal/auth"
	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/logger"
	"github.com/hqtrung/elearn/internal/rpc"
	"github.com/hqtrung/elearn/internal/service"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			NewSessionProvider,
			NewRPCClient,
			service.NewCatalogService,
			service.NewSRSService,
			service.NewAttemptService,
		),
		fx.Invoke(ConfigureLogging),
		fx.Invoke(ShowDashboard),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	if err := app.Stop(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to stop application")
	}
}

func ConfigureLogging(cfg *config.Config) {
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
}

// NewSessionProvider reads the bearer credential from config. A token
// with two dots is treated as a JWT so expiry is checked locally;
// anything else is passed through as an opaque API key.
func NewSessionProvider(cfg *config.Config) (auth.SessionProvider, error) {
	token := cfg.Auth.Token
	if token == "" && cfg.Auth.TokenFile != "" {
		raw, err := os.ReadFile(cfg.Auth.TokenFile)
		if err != nil {
			return nil, err
		}
		token = strings.TrimSpace(string(raw))
	}
	if strings.Count(token, ".") == 2 {
		return auth.NewJWTProvider(token), nil
	}
	return auth.NewStaticProvider(cfg.Auth.UserEmail, token), nil
}

func NewRPCClient(cfg *config.Config, provider auth.SessionProvider) *rpc.Client {
	opts := []rpc.Option{rpc.WithTimeout(cfg.Backend.Timeout)}
	if cfg.Backend.MethodPrefix != "" {
		opts = append(opts, rpc.WithMethodPrefix(cfg.Backend.MethodPrefix))
	}
	return rpc.NewClient(cfg.Backend.BaseURL, provider, opts...)
}

// ShowDashboard prints the signed-in user's practice landscape: active
// tests, topics, and the spaced-repetition due summary.
func ShowDashboard(lc fx.Lifecycle, shutdowner fx.Shutdowner, catalog service.CatalogService, srs service.SRSService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer shutdowner.Shutdown()
				runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				tests, err := catalog.FindActiveTests(runCtx, dto.CatalogFilters{})
				if err != nil {
					log.Error().Err(err).Msg("Failed to list active tests")
					return
				}
				for _, t := range tests {
					log.Info().
						Str("id", t.ID).
						Str("title", t.Title).
						Int("time_limit_minutes", t.TimeLimitMinutes).
						Msg("active test")
				}

				topics, err := catalog.FindActiveTopics(runCtx)
				if err != nil {
					log.Error().Err(err).Msg("Failed to list topics")
					return
				}
				for _, topic := range topics {
					log.Info().Str("id", topic.ID).Str("name", topic.Name).Msg("topic")
				}

				summary, err := srs.GetDueSummary(runCtx)
				if err != nil {
					log.Error().Err(err).Msg("Failed to load review summary")
					return
				}
				log.Info().
					Int("due", summary.DueCount).
					Int("upcoming", summary.UpcomingCount).
					Int("total", summary.TotalCount).
					Msg("review summary")
			}()
			return nil
		},
	})
}
