// internal/api/router.go
package api

import (
	"net/http"

	"beetle-movies/internal/guard"
	"beetle-movies/pkg/auth"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the mutation pipeline of the movie routes.
type RouterOptions struct {
	// Guards run in order in front of PUT and DELETE /movies/{id}.
	Guards guard.Chain
	// NotFoundObserver is attached to DELETE /movies/{id}. Optional.
	NotFoundObserver guard.Observer
	// Tokens enables bearer auth on mutating routes when set.
	Tokens auth.TokenManager
}

// route describes one endpoint together with its pipeline stages.
type route struct {
	name      string
	method    string
	path      string
	handler   http.HandlerFunc
	protected bool
	pipeline  Pipeline
}

func NewRouter(handler *MovieHandler, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, handler.LoggingMiddleware, MetricsMiddleware)

	router.HandleFunc("/", handler.Root).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var deleteObservers []guard.Observer
	if opts.NotFoundObserver != nil {
		deleteObservers = append(deleteObservers, opts.NotFoundObserver)
	}

	routes := []route{
		{name: "ListMovies", method: http.MethodGet, path: "/movies", handler: handler.GetMovies},
		{name: "CreateMovie", method: http.MethodPost, path: "/movies", handler: handler.CreateMovie, protected: true},
		{name: "GetMovie", method: http.MethodGet, path: "/movies/{id}", handler: handler.GetMovieByID},
		{
			name: "UpdateMovie", method: http.MethodPut, path: "/movies/{id}", handler: handler.UpdateMovie, protected: true,
			pipeline: Pipeline{Route: "UpdateMovie", Checkers: opts.Guards},
		},
		{
			name: "DeleteMovie", method: http.MethodDelete, path: "/movies/{id}", handler: handler.DeleteMovie, protected: true,
			pipeline: Pipeline{Route: "DeleteMovie", Checkers: opts.Guards, Observers: deleteObservers},
		},
		{name: "GetDirectors", method: http.MethodGet, path: "/movies/{id}/directors", handler: handler.GetDirectors},
	}

	for _, rt := range routes {
		var h http.Handler = rt.pipeline.Wrap(handler, rt.handler)
		if rt.protected && opts.Tokens != nil {
			h = handler.AuthMiddleware(opts.Tokens)(h)
		}
		router.Handle(rt.path, h).Methods(rt.method).Name(rt.name)
	}

	return router
}
