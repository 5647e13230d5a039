package guard

import (
	"context"
	"log/slog"
	"net/http"
)

// Checker is the pre-handler stage of a pipeline.
type Checker interface {
	Check(ctx context.Context, id int64) (Decision, error)
}

// Chain evaluates checkers in order and stops at the first rejection or error.
type Chain []Checker

func (c Chain) Check(ctx context.Context, id int64) (Decision, error) {
	for _, checker := range c {
		decision, err := checker.Check(ctx, id)
		if err != nil {
			return Decision{}, err
		}
		if !decision.Allowed() {
			return decision, nil
		}
	}
	return Decision{Outcome: Allow}, nil
}

// ObservedResponse is what an Observer gets to see once the handler is done.
type ObservedResponse struct {
	Route    string
	Method   string
	Path     string
	MovieID  int64
	Status   int
	Duration float64 // seconds
}

// Observer is the post-handler stage of a pipeline. It must not alter the
// response; it only gets a copy of its outcome.
type Observer interface {
	Observe(ctx context.Context, resp ObservedResponse)
}

// NotFoundLogger logs every 404 produced by the handler it observes.
type NotFoundLogger struct {
	logger *slog.Logger
}

func NewNotFoundLogger(logger *slog.Logger) *NotFoundLogger {
	return &NotFoundLogger{logger: logger}
}

func (o *NotFoundLogger) Observe(ctx context.Context, resp ObservedResponse) {
	if resp.Status != http.StatusNotFound {
		return
	}
	o.logger.WarnContext(ctx, "Resource not found",
		slog.String("route", resp.Route),
		slog.String("method", resp.Method),
		slog.String("path", resp.Path),
		slog.Int64("movieID", resp.MovieID),
		slog.Int("status", resp.Status))
	observedNotFound.WithLabelValues(resp.Route).Inc()
}
