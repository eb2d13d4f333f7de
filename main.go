package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/forlenza/fis-control/internal/engine"
	"github.com/forlenza/fis-control/internal/platform"
	"github.com/forlenza/fis-control/internal/server"
)

func main() {
	dotenvErr := godotenv.Load()

	logger := newLogger()
	log.Logger = logger
	if dotenvErr != nil {
		logger.Debug().Err(dotenvErr).Msg(".env file not loaded")
	}

	gate := platform.Detect()
	if !gate.Compatible {
		logger.Error().Str("reason", gate.Reason).Msg("platform incompatible; monitor stays inert")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(gate, logger,
		engine.WithInterval(engine.IntervalFromEnv()),
		engine.WithSettleDelay(engine.SettleDelayFromEnv()),
	)
	eng.Start(ctx)

	origins := corsOrigins()
	hub := server.NewHub(logger, origins)
	eng.RegisterTickListener(hub)

	router := server.NewRouter(server.Dependencies{
		Engine:      eng,
		Hub:         hub,
		Logger:      logger,
		CORSOrigins: origins,
	})

	addr := getEnv("FIS_HTTP_ADDR", ":8080")
	srv := &http.Server{Addr: addr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("control monitor API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("control monitor exited")
	}
	logger.Info().Msg("control monitor stopped")
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if getEnv("LOG_JSON", "false") == "true" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func corsOrigins() []string {
	raw := getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
