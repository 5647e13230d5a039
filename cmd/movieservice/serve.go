// cmd/movieservice/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	httpAPI "beetle-movies/internal/api"
	"beetle-movies/internal/config"
	grpcServer "beetle-movies/internal/grpc"
	"beetle-movies/internal/guard"
	"beetle-movies/internal/store"
	"beetle-movies/pkg/auth"
)

const (
	shutdownTimeout = 10 * time.Second
	tokenDuration   = 24 * time.Hour
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	movieStorage, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	guards := buildGuards(cfg.Guard.LockedRatings, movieStorage, logger)

	var tokens auth.TokenManager
	if cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenManager(cfg.Auth.JWTSecret, tokenDuration)
		if err != nil {
			return fmt.Errorf("failed to create token manager: %w", err)
		}
		logger.Info("Bearer auth enabled for mutating routes")
	}

	movieAPIHandler := httpAPI.NewMovieHandler(movieStorage, logger, validator.New())
	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpAPI.NewRouter(movieAPIHandler, httpAPI.RouterOptions{
			Guards:           guards,
			NotFoundObserver: guard.NewNotFoundLogger(logger),
			Tokens:           tokens,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %d: %w", cfg.GRPCPort, err)
	}
	grpcSrv := grpc.NewServer()
	grpcServer.RegisterMovieInterServiceServer(grpcSrv, grpcServer.NewServer(movieStorage, guards, logger))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("MovieService gRPC server starting", slog.Int("port", cfg.GRPCPort))
		if err := grpcSrv.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("MovieService HTTP server starting", slog.Int("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("MovieService shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("MovieService HTTP server shutdown failed", slog.String("error", err.Error()))
		} else {
			logger.Info("MovieService HTTP server gracefully stopped")
		}

		grpcSrv.GracefulStop()
		logger.Info("MovieService gRPC server gracefully stopped")
		return nil
	})

	return g.Wait()
}

// openStore picks the movie store for the configured driver. The returned
// func releases the underlying database, if any.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.MovieStore, func(), error) {
	if cfg.Database.Driver == store.DriverMemory {
		logger.Warn("Using in-memory movie store, data is lost on restart")
		return store.NewMemoryMovieStore(logger), func() {}, nil
	}

	logger.Info("Connecting to movie database",
		slog.String("driver", cfg.Database.Driver),
		slog.String("url", cfg.RedactedDatabaseURL()))

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		logger.Info("Closing movie database connection...")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close movie database connection", slog.String("error", err.Error()))
		}
	}

	if err := store.EnsureSchema(ctx, db, cfg.Database.Driver); err != nil {
		closeDB()
		return nil, nil, err
	}

	movieStorage, err := store.NewSQLMovieStore(db, logger)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	logger.Info("SQL movie store initialized", slog.String("driver", cfg.Database.Driver))
	return movieStorage, closeDB, nil
}

// buildGuards creates one rating guard per locked rating, in config order.
func buildGuards(lockedRatings []float64, finder guard.Finder, logger *slog.Logger) guard.Chain {
	guards := make(guard.Chain, 0, len(lockedRatings))
	for _, rating := range lockedRatings {
		name := "rating-" + guard.FormatRating(rating)
		guards = append(guards, guard.NewRatingGuard(name, finder, logger, rating))
	}
	logger.Info("Mutation guards configured", slog.Int("count", len(guards)))
	return guards
}
