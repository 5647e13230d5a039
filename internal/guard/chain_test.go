package guard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beetle-movies/internal/domain"
)

// countingChecker records how often it ran and returns a fixed result.
type countingChecker struct {
	decision Decision
	err      error
	calls    int
}

func (c *countingChecker) Check(context.Context, int64) (Decision, error) {
	c.calls++
	return c.decision, c.err
}

func TestChain_TwoThresholdsUseOrSemantics(t *testing.T) {
	finder := finderWith(
		&domain.Movie{ID: 1, Rating: 5},
		&domain.Movie{ID: 2, Rating: 2},
		&domain.Movie{ID: 3, Rating: 3},
	)
	chain := Chain{
		NewRatingGuard("rating-2", finder, discardLogger(), 2),
		NewRatingGuard("rating-5", finder, discardLogger(), 5),
	}
	ctx := context.Background()

	d, err := chain.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Reject, d.Outcome)
	assert.Equal(t, "5", d.Detail)
	assert.Equal(t, "rating-5", d.Guard)

	d, err = chain.Check(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Reject, d.Outcome)
	assert.Equal(t, "2", d.Detail)
	assert.Equal(t, "rating-2", d.Guard)

	d, err = chain.Check(ctx, 3)
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}

func TestChain_StopsAtFirstReject(t *testing.T) {
	first := &countingChecker{decision: Decision{Outcome: Reject, Reason: ReasonLocked, Detail: "2"}}
	second := &countingChecker{decision: Decision{Outcome: Allow}}

	d, err := Chain{first, second}.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2", d.Detail)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChain_StopsAtFirstError(t *testing.T) {
	first := &countingChecker{err: ErrDependencyUnavailable}
	second := &countingChecker{decision: Decision{Outcome: Allow}}

	_, err := Chain{first, second}.Check(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrDependencyUnavailable))
	assert.Equal(t, 0, second.calls)
}

func TestChain_EmptyAllows(t *testing.T) {
	d, err := Chain{}.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}

func TestNotFoundLogger_Observe(t *testing.T) {
	var buf bytes.Buffer
	o := NewNotFoundLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()

	o.Observe(ctx, ObservedResponse{Route: "observer-test", Method: http.MethodDelete, Path: "/movies/1", MovieID: 1, Status: http.StatusNoContent})
	assert.Empty(t, buf.String())

	o.Observe(ctx, ObservedResponse{Route: "observer-test", Method: http.MethodDelete, Path: "/movies/9", MovieID: 9, Status: http.StatusNotFound})
	assert.Contains(t, buf.String(), "Resource not found")
	assert.Contains(t, buf.String(), `"movieID":9`)
	assert.Equal(t, 1.0, testutil.ToFloat64(observedNotFound.WithLabelValues("observer-test")))
}
