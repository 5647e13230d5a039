package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beetle-movies/internal/domain"
	"beetle-movies/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubFinder returns fixed movies and counts lookups.
type stubFinder struct {
	mu     sync.Mutex
	movies map[int64]*domain.Movie
	err    error
	calls  int
}

func (f *stubFinder) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.movies[id]
	if !ok {
		return nil, store.ErrMovieNotFound
	}
	c := *m
	return &c, nil
}

func finderWith(movies ...*domain.Movie) *stubFinder {
	f := &stubFinder{movies: map[int64]*domain.Movie{}}
	for _, m := range movies {
		f.movies[m.ID] = m
	}
	return f
}

func TestRatingLock_Evaluate(t *testing.T) {
	lock := RatingLock{Thresholds: []float64{2, 5, 7.5}}

	tests := []struct {
		name       string
		rating     float64
		wantLocked bool
		wantDetail string
	}{
		{"matches first threshold", 2, true, "2"},
		{"matches second threshold", 5, true, "5"},
		{"matches fractional threshold", 7.5, true, "7.5"},
		{"no match", 3, false, ""},
		{"near miss", 5.01, false, ""},
		{"zero rating", 0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, locked := lock.Evaluate(&domain.Movie{Rating: tt.rating})
			assert.Equal(t, tt.wantLocked, locked)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestRatingLock_NoThresholdsNeverLocks(t *testing.T) {
	_, locked := RatingLock{}.Evaluate(&domain.Movie{Rating: 5})
	assert.False(t, locked)
}

func TestGuard_Check(t *testing.T) {
	ctx := context.Background()
	finder := finderWith(
		&domain.Movie{ID: 1, Title: "Perfect", Rating: 5},
		&domain.Movie{ID: 2, Title: "Average", Rating: 3},
	)
	g := NewRatingGuard("rating-5", finder, discardLogger(), 5)

	t.Run("locked movie is rejected", func(t *testing.T) {
		d, err := g.Check(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, Reject, d.Outcome)
		assert.Equal(t, ReasonLocked, d.Reason)
		assert.Equal(t, "5", d.Detail)
		assert.Equal(t, "rating-5", d.Guard)
		assert.False(t, d.Allowed())
	})

	t.Run("unlocked movie is allowed", func(t *testing.T) {
		d, err := g.Check(ctx, 2)
		require.NoError(t, err)
		assert.True(t, d.Allowed())
		assert.Empty(t, d.Reason)
	})

	t.Run("missing movie is allowed", func(t *testing.T) {
		d, err := g.Check(ctx, 404)
		require.NoError(t, err)
		assert.True(t, d.Allowed())
	})
}

func TestGuard_CheckIsIdempotent(t *testing.T) {
	ctx := context.Background()
	finder := finderWith(&domain.Movie{ID: 1, Rating: 2})
	g := NewRatingGuard("idempotent", finder, discardLogger(), 2, 5)

	first, err := g.Check(ctx, 1)
	require.NoError(t, err)
	second, err := g.Check(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, finder.calls)
}

func TestGuard_DoesNotMutateMovie(t *testing.T) {
	movie := &domain.Movie{ID: 1, Title: "Locked", Year: 1999, Rating: 5}
	finder := finderWith(movie)
	g := NewRatingGuard("readonly", finder, discardLogger(), 5)

	_, err := g.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Movie{ID: 1, Title: "Locked", Year: 1999, Rating: 5}, *finder.movies[1])
}

func TestGuard_DependencyFailureIsNeverAllow(t *testing.T) {
	boom := errors.New("connection refused")
	finder := &stubFinder{err: boom}
	g := NewRatingGuard("dep-failure", finder, discardLogger(), 5)

	d, err := g.Check(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.False(t, d.Allowed(), "zero decision must not read as allow")
	assert.Equal(t, 1.0, testutil.ToFloat64(decisionsTotal.WithLabelValues("dep-failure", "error")))
}

func TestGuard_CancelledContextIsDependencyFailure(t *testing.T) {
	ms := store.NewMemoryMovieStore(discardLogger())
	require.NoError(t, ms.Create(context.Background(), &domain.Movie{Title: "Any"}, nil))
	g := NewRatingGuard("cancelled", ms, discardLogger(), 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Check(ctx, 1)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGuard_PredicatesAreOred(t *testing.T) {
	finder := finderWith(&domain.Movie{ID: 1, Title: "Cult", Rating: 4})
	never := PredicateFunc(func(*domain.Movie) (string, bool) { return "", false })
	titled := PredicateFunc(func(m *domain.Movie) (string, bool) { return "title", m.Title == "Cult" })
	g := New("composite", finder, discardLogger(), never, titled)

	d, err := g.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Reject, d.Outcome)
	assert.Equal(t, "title", d.Detail)
}

func TestGuard_RecordsDecisionMetrics(t *testing.T) {
	finder := finderWith(&domain.Movie{ID: 1, Rating: 5}, &domain.Movie{ID: 2, Rating: 1})
	g := NewRatingGuard("metrics", finder, discardLogger(), 5)

	_, _ = g.Check(context.Background(), 1)
	_, _ = g.Check(context.Background(), 2)
	_, _ = g.Check(context.Background(), 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(decisionsTotal.WithLabelValues("metrics", "reject")))
	assert.Equal(t, 2.0, testutil.ToFloat64(decisionsTotal.WithLabelValues("metrics", "allow")))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "reject", Reject.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "5", FormatRating(5))
	assert.Equal(t, "2.5", FormatRating(2.5))
	assert.Equal(t, "0", FormatRating(0))
}
