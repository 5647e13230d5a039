// internal/grpc/server.go
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"beetle-movies/internal/domain"
	"beetle-movies/internal/guard"
	"beetle-movies/internal/store"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements MovieInterServiceServer.
type Server struct {
	store  store.MovieStore
	guards guard.Checker
	logger *slog.Logger
}

// NewServer creates the gRPC server for the movie catalog. guards is the
// same chain that protects HTTP mutations.
func NewServer(movieStore store.MovieStore, guards guard.Checker, logger *slog.Logger) *Server {
	return &Server{
		store:  movieStore,
		guards: guards,
		logger: logger,
	}
}

// movieToStruct encodes a movie for GetMovieInfo. Struct numbers are
// float64, so the id travels as a decimal string to stay exact above 2^53.
func movieToStruct(movie *domain.Movie) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":     strconv.FormatInt(movie.ID, 10),
		"title":  movie.Title,
		"year":   movie.Year,
		"rating": movie.Rating,
	})
}

// GetMovieInfo returns the basic fields of a movie.
func (s *Server) GetMovieInfo(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	movieID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetMovieInfo called", slog.Int64("movie_id", movieID))

	if movieID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movie_id must be a positive integer")
	}

	movie, err := s.store.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			s.logger.WarnContext(ctx, "Movie not found by ID for GetMovieInfo", slog.Int64("movie_id", movieID))
			return nil, status.Errorf(codes.NotFound, "movie not found with ID %d", movieID)
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from store for GetMovieInfo", slog.Int64("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to retrieve movie details: %v", err)
	}

	info, err := movieToStruct(movie)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode movie: %v", err)
	}
	return info, nil
}

// CheckMovieExists reports whether a movie with the id exists.
func (s *Server) CheckMovieExists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	movieID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC CheckMovieExists called", slog.Int64("movie_id", movieID))

	if movieID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movie_id must be a positive integer")
	}

	if _, err := s.store.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			return wrapperspb.Bool(false), nil
		}
		s.logger.ErrorContext(ctx, "Failed to check movie existence from store", slog.Int64("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to check movie existence: %v", err)
	}
	return wrapperspb.Bool(true), nil
}

// GetLockStatus runs the mutation guards for a movie without mutating it.
func (s *Server) GetLockStatus(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	movieID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetLockStatus called", slog.Int64("movie_id", movieID))

	if movieID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movie_id must be a positive integer")
	}

	decision, err := s.guards.Check(ctx, movieID)
	if err != nil {
		if errors.Is(err, guard.ErrDependencyUnavailable) {
			return nil, status.Errorf(codes.Unavailable, "movie state unavailable: %v", err)
		}
		return nil, status.Errorf(codes.Internal, "lock check failed: %v", err)
	}

	result, err := structpb.NewStruct(map[string]interface{}{
		"locked": !decision.Allowed(),
		"reason": decision.Detail,
		"guard":  decision.Guard,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode lock status: %v", err)
	}
	return result, nil
}
