package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/placefinder/server/internal/agent/actions"
	"github.com/placefinder/server/internal/agent/fallback"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/internal/agent/repo"
	"github.com/placefinder/server/internal/agent/search"
	"github.com/placefinder/server/internal/agent/server"
	"github.com/placefinder/server/internal/connectors/alexa"
	"github.com/placefinder/server/internal/core"
	"github.com/placefinder/server/pkg/duckling"
	logx "github.com/placefinder/server/pkg/logger"
	"github.com/placefinder/server/pkg/places"
	"github.com/placefinder/server/pkg/rasa"
	pkgredis "github.com/placefinder/server/pkg/redis"
	"github.com/placefinder/server/pkg/spelling"
)

// AppConfig defines all configurable parameters of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	Server model.ServerConfig
	Store  model.StoreConfig
	Redis  pkgredis.Config

	// External services
	Places   places.Config
	Duckling duckling.Config
	Spelling spelling.Config

	// LLM provider; the fallback responder is disabled without a key
	APIKey   string `envconfig:"GEMINI_API_KEY"`
	BaseURL  string `envconfig:"GEMINI_BASE_URL"`
	Fallback model.FallbackModelConfig

	Search  model.SearchConfig
	Booking model.BookingConfig
	Alexa   model.AlexaConfig
}

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.LogLevel})
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := newStore(ctx, cfg)
	defer closeStore()

	deps := actions.Deps{
		Store:   store,
		Finder:  search.NewFinder(places.New(cfg.Places), cfg.Search),
		Parser:  duckling.New(cfg.Duckling),
		Search:  cfg.Search,
		Booking: cfg.Booking,
	}
	if cfg.APIKey != "" {
		responder, err := fallback.NewGeminiResponder(ctx, fallback.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Fallback,
		})
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to build fallback responder")
		}
		deps.Responder = responder
	} else {
		logx.Info().Msg("GEMINI_API_KEY not set, fallback actions use canned responses")
	}

	registry := actions.New(deps).Registry()
	servers := []*http.Server{{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server.NewRouter(registry),
	}}
	if cfg.Alexa.Enabled {
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Alexa.Host, cfg.Alexa.Port),
			Handler: alexa.NewRouter(newBridge(cfg), server.RequestLogger()),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logx.Info().Str("addr", srv.Addr).Msg("Server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logx.Fatal().Err(err).Msg("Server stopped with error")
	}
	logx.Info().Msg("Server exited")
}

// newStore builds the configured store and returns a function releasing it.
func newStore(ctx context.Context, cfg AppConfig) (model.Store, func()) {
	switch cfg.Store.Backend {
	case "memory":
		return repo.NewMemoryStore(), func() {}
	case "redis":
		ttl, err := time.ParseDuration(cfg.Store.TTL)
		if err != nil {
			logx.Fatal().Err(err).Msgf("Invalid STORE_TTL '%s'", cfg.Store.TTL)
		}
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		logx.Info().Msg("Connected to Redis successfully")
		return repo.NewRedisStore(rdb, ttl, cfg.Store.KeyPrefix), func() { _ = rdb.Close() }
	default:
		logx.Fatal().Msgf("Unknown STORE_BACKEND '%s'", cfg.Store.Backend)
		return nil, nil
	}
}

func newBridge(cfg AppConfig) *alexa.Bridge {
	client := rasa.New(rasa.Config{URL: cfg.Alexa.RasaURL, Timeout: cfg.Alexa.RasaTimeout})
	if !cfg.Alexa.SpellCheck || !cfg.Spelling.Enabled() {
		return alexa.NewBridge(client, nil)
	}
	checker, err := spelling.New(cfg.Spelling)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create spell checker")
	}
	return alexa.NewBridge(client, checker)
}
