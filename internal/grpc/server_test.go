package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"beetle-movies/internal/domain"
	"beetle-movies/internal/guard"
	"beetle-movies/internal/store"
)

const bufSize = 1024 * 1024

type brokenStore struct {
	*store.MemoryMovieStore
}

// bigIDStore serves a single movie whose id does not fit in a float64.
type bigIDStore struct {
	*store.MemoryMovieStore
}

const bigMovieID int64 = 1<<53 + 1

func (b *bigIDStore) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	if id != bigMovieID {
		return nil, store.ErrMovieNotFound
	}
	return &domain.Movie{ID: bigMovieID, Title: "Far Away", Year: 2030, Rating: 7}, nil
}

func (b *brokenStore) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	return nil, errors.New("connection reset")
}

func startServer(t *testing.T, movies store.MovieStore) MovieInterServiceClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guards := guard.Chain{
		guard.NewRatingGuard("rating-2", movies, logger, 2),
		guard.NewRatingGuard("rating-5", movies, logger, 5),
	}

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	RegisterMovieInterServiceServer(srv, NewServer(movies, guards, logger))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewMovieInterServiceClient(conn)
}

func seed(t *testing.T, s store.MovieStore, title string, year int, rating float64) int64 {
	t.Helper()
	m := &domain.Movie{Title: title, Year: year, Rating: rating}
	require.NoError(t, s.Create(context.Background(), m, []string{"Some Director"}))
	return m.ID
}

func TestGetMovieInfo(t *testing.T) {
	movies := store.NewMemoryMovieStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	id := seed(t, movies, "Stalker", 1979, 8.1)
	client := startServer(t, movies)

	res, err := client.GetMovieInfo(context.Background(), wrapperspb.Int64(id))
	require.NoError(t, err)
	fields := res.GetFields()
	assert.Equal(t, strconv.FormatInt(id, 10), fields["id"].GetStringValue())
	assert.Equal(t, "Stalker", fields["title"].GetStringValue())
	assert.Equal(t, float64(1979), fields["year"].GetNumberValue())
	assert.Equal(t, 8.1, fields["rating"].GetNumberValue())
}

func TestGetMovieInfo_LargeIDIsExact(t *testing.T) {
	movies := &bigIDStore{MemoryMovieStore: store.NewMemoryMovieStore(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	client := startServer(t, movies)

	res, err := client.GetMovieInfo(context.Background(), wrapperspb.Int64(bigMovieID))
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", res.GetFields()["id"].GetStringValue())
}

func TestGetMovieInfo_Errors(t *testing.T) {
	movies := store.NewMemoryMovieStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	client := startServer(t, movies)

	_, err := client.GetMovieInfo(context.Background(), wrapperspb.Int64(0))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetMovieInfo(context.Background(), wrapperspb.Int64(42))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestCheckMovieExists(t *testing.T) {
	movies := store.NewMemoryMovieStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	id := seed(t, movies, "Solaris", 1972, 8.0)
	client := startServer(t, movies)

	res, err := client.CheckMovieExists(context.Background(), wrapperspb.Int64(id))
	require.NoError(t, err)
	assert.True(t, res.GetValue())

	res, err = client.CheckMovieExists(context.Background(), wrapperspb.Int64(id+100))
	require.NoError(t, err)
	assert.False(t, res.GetValue())

	_, err = client.CheckMovieExists(context.Background(), wrapperspb.Int64(-1))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetLockStatus(t *testing.T) {
	movies := store.NewMemoryMovieStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	locked := seed(t, movies, "Locked Movie", 2001, 5)
	open := seed(t, movies, "Open Movie", 2002, 5.5)
	client := startServer(t, movies)

	res, err := client.GetLockStatus(context.Background(), wrapperspb.Int64(locked))
	require.NoError(t, err)
	fields := res.GetFields()
	assert.True(t, fields["locked"].GetBoolValue())
	assert.Equal(t, "5", fields["reason"].GetStringValue())
	assert.Equal(t, "rating-5", fields["guard"].GetStringValue())

	res, err = client.GetLockStatus(context.Background(), wrapperspb.Int64(open))
	require.NoError(t, err)
	assert.False(t, res.GetFields()["locked"].GetBoolValue())

	// Absent movies are not locked.
	res, err = client.GetLockStatus(context.Background(), wrapperspb.Int64(999))
	require.NoError(t, err)
	assert.False(t, res.GetFields()["locked"].GetBoolValue())

	got, err := movies.GetByID(context.Background(), locked)
	require.NoError(t, err)
	assert.Equal(t, "Locked Movie", got.Title)
}

func TestGetLockStatus_StoreUnavailable(t *testing.T) {
	movies := &brokenStore{MemoryMovieStore: store.NewMemoryMovieStore(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	client := startServer(t, movies)

	_, err := client.GetLockStatus(context.Background(), wrapperspb.Int64(1))
	assert.Equal(t, codes.Unavailable, status.Code(err))

	_, err = client.GetMovieInfo(context.Background(), wrapperspb.Int64(1))
	assert.Equal(t, codes.Internal, status.Code(err))
}
