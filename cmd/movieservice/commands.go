// cmd/movieservice/commands.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"beetle-movies/internal/clients"
	"beetle-movies/internal/config"
	"beetle-movies/pkg/auth"
)

var (
	configPath  string
	grpcAddr    string
	movieID     int64
	subject     string
	role        string
	tokenExpiry time.Duration

	rootCmd = &cobra.Command{
		Use:   "movieservice",
		Short: "Movie catalog service with rating-based mutation locks",
		Long: `movieservice serves the movie catalog over HTTP and gRPC.
Movies whose rating matches a configured locked rating cannot be
updated or deleted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE:  runServe, // Defined in serve.go
	}

	lockStatusCmd = &cobra.Command{
		Use:   "lock-status",
		Short: "Ask a running service whether a movie is locked",
		RunE:  runLockStatus,
	}

	issueTokenCmd = &cobra.Command{
		Use:   "issue-token",
		Short: "Print a bearer token for the mutating HTTP routes",
		RunE:  runIssueToken,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	lockStatusCmd.Flags().StringVar(&grpcAddr, "addr", "localhost:9092", "gRPC address of the movie service")
	lockStatusCmd.Flags().Int64Var(&movieID, "id", 0, "movie id")
	_ = lockStatusCmd.MarkFlagRequired("id")

	issueTokenCmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	issueTokenCmd.Flags().StringVar(&role, "role", "editor", "token role")
	issueTokenCmd.Flags().DurationVar(&tokenExpiry, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, lockStatusCmd, issueTokenCmd)
}

func runLockStatus(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := clients.NewMovieServiceGRPCClient(grpcAddr, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := client.GetLockStatus(ctx, movieID)
	if err != nil {
		return err
	}
	if status.Locked {
		fmt.Fprintf(cmd.OutOrStdout(), "movie %d is locked by %s (rating %s)\n", movieID, status.Guard, status.Reason)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "movie %d is not locked\n", movieID)
	return nil
}

func runIssueToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("no jwt secret configured; set auth.jwt_secret or MOVIE_SERVICE_JWT_SECRET")
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, tokenExpiry)
	if err != nil {
		return err
	}
	token, err := tokens.Generate(subject, role)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
