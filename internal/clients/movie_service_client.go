// internal/clients/movie_service_client.go
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	moviegrpc "beetle-movies/internal/grpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const callTimeout = 3 * time.Second

// MovieInfo is the client-side view of a catalog movie.
type MovieInfo struct {
	ID     int64
	Title  string
	Year   int
	Rating float64
}

// LockStatus is the guard decision for a movie as reported by the service.
type LockStatus struct {
	Locked bool
	Reason string
	Guard  string
}

// MovieServiceClient talks to MovieInterService.
type MovieServiceClient interface {
	CheckMovieExists(ctx context.Context, movieID int64) (bool, error)
	GetMovieInfo(ctx context.Context, movieID int64) (*MovieInfo, error)
	GetLockStatus(ctx context.Context, movieID int64) (*LockStatus, error)
	Close() error
}

type movieServiceGRPCClient struct {
	client moviegrpc.MovieInterServiceClient
	logger *slog.Logger
	conn   *grpc.ClientConn
}

// NewMovieServiceGRPCClient creates a client for the service at target
// (e.g. "localhost:9092"). Extra dial options are appended after the
// insecure transport credentials.
func NewMovieServiceGRPCClient(target string, logger *slog.Logger, opts ...grpc.DialOption) (MovieServiceClient, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		logger.Error("Failed to create MovieService gRPC client", slog.String("address", target), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create movie service client for %s: %w", target, err)
	}
	return &movieServiceGRPCClient{
		client: moviegrpc.NewMovieInterServiceClient(conn),
		logger: logger,
		conn:   conn,
	}, nil
}

func (c *movieServiceGRPCClient) logCallError(ctx context.Context, method string, movieID int64, err error) {
	st, _ := status.FromError(err)
	c.logger.ErrorContext(ctx, "MovieService gRPC call failed",
		slog.String("method", method),
		slog.Int64("movie_id", movieID),
		slog.String("code", st.Code().String()),
		slog.String("message", st.Message()))
}

// CheckMovieExists calls MovieInterService.CheckMovieExists.
func (c *movieServiceGRPCClient) CheckMovieExists(ctx context.Context, movieID int64) (bool, error) {
	if movieID <= 0 {
		return false, status.Errorf(codes.InvalidArgument, "movieID must be positive")
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := c.client.CheckMovieExists(callCtx, wrapperspb.Int64(movieID))
	if err != nil {
		c.logCallError(ctx, "CheckMovieExists", movieID, err)
		return false, fmt.Errorf("grpc CheckMovieExists failed for movieID %d: %w", movieID, err)
	}
	return res.GetValue(), nil
}

// GetMovieInfo calls MovieInterService.GetMovieInfo.
func (c *movieServiceGRPCClient) GetMovieInfo(ctx context.Context, movieID int64) (*MovieInfo, error) {
	if movieID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movieID must be positive")
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := c.client.GetMovieInfo(callCtx, wrapperspb.Int64(movieID))
	if err != nil {
		c.logCallError(ctx, "GetMovieInfo", movieID, err)
		return nil, fmt.Errorf("grpc GetMovieInfo failed for movieID %d: %w", movieID, err)
	}

	fields := res.GetFields()
	id, err := strconv.ParseInt(fields["id"].GetStringValue(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("grpc GetMovieInfo returned a malformed id for movieID %d: %w", movieID, err)
	}
	return &MovieInfo{
		ID:     id,
		Title:  fields["title"].GetStringValue(),
		Year:   int(fields["year"].GetNumberValue()),
		Rating: fields["rating"].GetNumberValue(),
	}, nil
}

// GetLockStatus calls MovieInterService.GetLockStatus.
func (c *movieServiceGRPCClient) GetLockStatus(ctx context.Context, movieID int64) (*LockStatus, error) {
	if movieID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movieID must be positive")
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := c.client.GetLockStatus(callCtx, wrapperspb.Int64(movieID))
	if err != nil {
		c.logCallError(ctx, "GetLockStatus", movieID, err)
		return nil, fmt.Errorf("grpc GetLockStatus failed for movieID %d: %w", movieID, err)
	}

	fields := res.GetFields()
	return &LockStatus{
		Locked: fields["locked"].GetBoolValue(),
		Reason: fields["reason"].GetStringValue(),
		Guard:  fields["guard"].GetStringValue(),
	}, nil
}

// Close closes the gRPC connection.
func (c *movieServiceGRPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
