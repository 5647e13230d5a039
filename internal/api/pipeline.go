package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"beetle-movies/internal/guard"
)

// Pipeline wraps a single route handler with pre-handler checkers and
// post-handler observers. Checkers run in order until the first rejection.
// Observers only run when the handler ran.
type Pipeline struct {
	Route     string
	Checkers  guard.Chain
	Observers []guard.Observer
}

// Wrap returns the handler guarded by the pipeline.
func (p Pipeline) Wrap(h *MovieHandler, next http.Handler) http.Handler {
	if len(p.Checkers) == 0 && len(p.Observers) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		movieID, err := movieIDFromRequest(r)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
			return
		}

		decision, err := p.Checkers.Check(ctx, movieID)
		if err != nil {
			if !errors.Is(err, guard.ErrDependencyUnavailable) {
				h.logger.ErrorContext(ctx, "Unexpected guard error", slog.String("error", err.Error()))
			}
			h.respondError(w, r, http.StatusServiceUnavailable, codeDependencyUnavailable, "movie state unavailable")
			return
		}
		if !decision.Allowed() {
			h.respondLocked(w, r, decision)
			return
		}

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		observed := guard.ObservedResponse{
			Route:    p.Route,
			Method:   r.Method,
			Path:     r.URL.Path,
			MovieID:  movieID,
			Status:   rec.Status(),
			Duration: time.Since(start).Seconds(),
		}
		for _, o := range p.Observers {
			o.Observe(ctx, observed)
		}
	})
}

// respondLocked answers a rejected mutation with 423 Locked.
func (h *MovieHandler) respondLocked(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	h.respondJSON(w, r, http.StatusLocked, map[string]string{
		"error":  "movie is locked",
		"code":   codeLocked,
		"reason": d.Detail,
		"guard":  d.Guard,
	})
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Status returns the written status, 200 if the handler wrote nothing.
func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
