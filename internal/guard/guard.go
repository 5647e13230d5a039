// Package guard decides whether a mutating request may touch a movie.
//
// A Guard reads the current movie through a Finder, evaluates its lock
// predicates and returns a Decision. Guards never write. Several guards can
// be put in a Chain, which stops at the first rejection.
//
// A movie that does not exist is never locked: the guard allows the request
// and leaves the not-found response to the handler.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"beetle-movies/internal/domain"
	"beetle-movies/internal/store"
)

// ErrDependencyUnavailable is returned when the movie could not be read.
// Callers must fail the request, never treat it as an Allow.
var ErrDependencyUnavailable = errors.New("guard: movie state unavailable")

// Outcome of a single guard evaluation. The zero value is Pending, so an
// unset Decision never reads as allowed.
type Outcome int

const (
	Pending Outcome = iota
	Allow
	Reject
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Reason is the machine-readable cause of a rejection.
type Reason string

const ReasonLocked Reason = "locked"

// Decision is computed once per request and is not stored anywhere.
type Decision struct {
	Outcome Outcome
	Reason  Reason
	// Detail identifies what matched, e.g. the rating threshold "5".
	Detail string
	// Guard is the name of the guard that produced the decision.
	Guard string
}

// Allowed reports whether the pipeline may continue to the handler.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Finder is the read side of the movie store the guard depends on.
type Finder interface {
	GetByID(ctx context.Context, id int64) (*domain.Movie, error)
}

// Predicate reports whether a movie is locked and, if so, why.
type Predicate interface {
	Evaluate(movie *domain.Movie) (detail string, locked bool)
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(movie *domain.Movie) (string, bool)

func (f PredicateFunc) Evaluate(movie *domain.Movie) (string, bool) { return f(movie) }

// RatingLock locks movies whose rating equals any of the thresholds.
type RatingLock struct {
	Thresholds []float64
}

func (p RatingLock) Evaluate(movie *domain.Movie) (string, bool) {
	for _, t := range p.Thresholds {
		if movie.Rating == t {
			return FormatRating(t), true
		}
	}
	return "", false
}

// FormatRating renders a rating without trailing zeros ("5", "7.5").
func FormatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Guard is a pre-handler check over the current state of one movie.
// It is safe for concurrent use.
type Guard struct {
	name       string
	finder     Finder
	predicates []Predicate
	logger     *slog.Logger
}

// New creates a guard. Predicates are combined with OR.
func New(name string, finder Finder, logger *slog.Logger, predicates ...Predicate) *Guard {
	return &Guard{
		name:       name,
		finder:     finder,
		predicates: predicates,
		logger:     logger,
	}
}

// NewRatingGuard is a guard with a single RatingLock predicate.
func NewRatingGuard(name string, finder Finder, logger *slog.Logger, thresholds ...float64) *Guard {
	return New(name, finder, logger, RatingLock{Thresholds: thresholds})
}

// Name returns the guard's name as used in logs, metrics and rejections.
func (g *Guard) Name() string { return g.name }

// Check fetches the movie and evaluates the predicates against it.
func (g *Guard) Check(ctx context.Context, id int64) (Decision, error) {
	movie, err := g.finder.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			g.logger.DebugContext(ctx, "Guard found no movie, deferring to handler", slog.String("guard", g.name), slog.Int64("movieID", id))
			observeDecision(g.name, Allow.String())
			return Decision{Outcome: Allow, Guard: g.name}, nil
		}
		g.logger.ErrorContext(ctx, "Guard failed to read movie", slog.String("guard", g.name), slog.Int64("movieID", id), slog.String("error", err.Error()))
		observeDecision(g.name, "error")
		return Decision{}, fmt.Errorf("%w: movie %d: %w", ErrDependencyUnavailable, id, err)
	}

	for _, p := range g.predicates {
		if detail, locked := p.Evaluate(movie); locked {
			g.logger.InfoContext(ctx, "Guard rejected mutation of locked movie",
				slog.String("guard", g.name),
				slog.Int64("movieID", id),
				slog.String("reason", detail))
			observeDecision(g.name, Reject.String())
			return Decision{Outcome: Reject, Reason: ReasonLocked, Detail: detail, Guard: g.name}, nil
		}
	}

	observeDecision(g.name, Allow.String())
	return Decision{Outcome: Allow, Guard: g.name}, nil
}
