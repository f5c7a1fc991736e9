package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/riorajhon/block-vote/internal/api"
	"github.com/riorajhon/block-vote/internal/chain"
	config "github.com/riorajhon/block-vote/internal/config"
	db_connection "github.com/riorajhon/block-vote/internal/database/connection"
	repositories "github.com/riorajhon/block-vote/internal/database/repositories"
	"github.com/riorajhon/block-vote/internal/election"
	"github.com/riorajhon/block-vote/internal/logging"
	"github.com/riorajhon/block-vote/internal/votes"
)

func main() {
	// Optional .env, matching local development setups.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.ServerConfig.LogLevel, cfg.ServerConfig.LogFormat)

	db, err := db_connection.Open(cfg.DatabaseConfig.File)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open ledger database")
	}

	repos := repositories.NewRepositories(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := chain.NewEthGateway(ctx, cfg.ChainConfig, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chain gateway")
	}

	scheduler := election.NewTimerScheduler()
	coordinator := election.NewCoordinator(repos, gateway, scheduler, logger)
	admission := votes.NewAdmissionService(repos, logger)

	bootstrapRegistrationPhase(ctx, gateway, logger)

	if err := coordinator.RestoreTimers(); err != nil {
		logger.Error().Err(err).Msg("failed to restore election timers")
	}

	server := &http.Server{
		Addr:    ":" + cfg.ServerConfig.Port,
		Handler: api.NewServer(coordinator, admission, logger).Router(),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info().Str("port", cfg.ServerConfig.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info().Msg("shutting down")

		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func loadConfig() (*config.Config, error) {
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		return config.LoadConfigFile(configFile)
	}

	return config.LoadConfig(), nil
}

// bootstrapRegistrationPhase opens voter registration on the contract if it
// is not already open. Best effort: the server still serves ledger reads
// when the chain is unavailable at boot.
func bootstrapRegistrationPhase(ctx context.Context, gateway chain.Gateway, logger zerolog.Logger) {
	active, err := gateway.IsRegistrationPhaseActive(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not read registration phase state")
		return
	}

	if active {
		logger.Info().Msg("registration phase already active")
		return
	}

	if err := gateway.StartRegistrationPhase(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not start registration phase")
		return
	}

	logger.Info().Msg("registration phase started")
}
