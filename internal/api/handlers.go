// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"beetle-movies/internal/domain"
	"beetle-movies/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Error codes returned next to the error message so clients can tell a bad
// request apart from a protected movie.
const (
	codeInvalidRequest        = "invalid_request"
	codeValidationFailed      = "validation_failed"
	codeNotFound              = "not_found"
	codeLocked                = "locked"
	codeDependencyUnavailable = "dependency_unavailable"
	codeUnauthorized          = "unauthorized"
	codeInternal              = "internal"
)

// titleHeader carries the title filter for GET /movies.
const titleHeader = "movieName"

var errInvalidMovieID = errors.New("movie id must be a positive integer")

// MovieHandler holds the dependencies of the HTTP handlers.
type MovieHandler struct {
	store     store.MovieStore
	logger    *slog.Logger
	validator *validator.Validate
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(s store.MovieStore, l *slog.Logger, v *validator.Validate) *MovieHandler {
	return &MovieHandler{
		store:     s,
		logger:    l,
		validator: v,
	}
}

func (h *MovieHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *MovieHandler) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message, "code": code})
}

// movieIDFromRequest parses the {id} route variable.
func movieIDFromRequest(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidMovieID
	}
	return id, nil
}

// Root answers GET / so that a quick curl shows the service is up.
func (h *MovieHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "BeetleMovies API is running")
}

// Health is the liveness probe.
func (h *MovieHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateMovie handles POST /movies.
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP CreateMovie request received", slog.String("path", r.URL.Path))

	var req domain.CreateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode movie creation request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.logger.WarnContext(ctx, "Movie creation request validation failed", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, codeValidationFailed, "Validation failed: "+err.Error())
		return
	}

	movie := &domain.Movie{
		Title:  req.Title,
		Year:   req.Year,
		Rating: req.Rating,
	}
	if err := h.store.Create(ctx, movie, req.Directors); err != nil {
		h.logger.ErrorContext(ctx, "Failed to create movie in store", slog.String("error", err.Error()))
		if errors.Is(err, store.ErrMovieAlreadyExists) {
			h.respondError(w, r, http.StatusConflict, codeInvalidRequest, "Movie conflicts with an existing record")
		} else {
			h.respondError(w, r, http.StatusInternalServerError, codeInternal, "Failed to create movie")
		}
		return
	}

	h.logger.InfoContext(ctx, "Movie created", slog.Int64("movieID", movie.ID))
	w.Header().Set("Location", fmt.Sprintf("/movies/%d", movie.ID))
	h.respondJSON(w, r, http.StatusCreated, movie)
}

// GetMovies lists movies. The title filter comes from the movieName header
// or the title query parameter. An empty result is answered with 204.
func (h *MovieHandler) GetMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	queryParams := r.URL.Query()
	h.logger.InfoContext(ctx, "GetMovies endpoint hit", slog.String("query", queryParams.Encode()))

	page, _ := strconv.Atoi(queryParams.Get("page"))
	pageSize, _ := strconv.Atoi(queryParams.Get("limit"))
	title := r.Header.Get(titleHeader)
	if title == "" {
		title = queryParams.Get("title")
	}

	params := store.MovieListParams{
		Page:     page,
		PageSize: pageSize,
		Title:    title,
		SortBy:   queryParams.Get("sort_by"),
	}
	params.Normalize()

	movies, totalCount, err := h.store.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list movies from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, codeInternal, "Failed to retrieve movies")
		return
	}
	if totalCount == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	response := struct {
		Movies     []*domain.Movie `json:"movies"`
		TotalCount int             `json:"total_count"`
		Page       int             `json:"page"`
		PageSize   int             `json:"page_size"`
	}{
		Movies:     movies,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	}
	h.logger.InfoContext(ctx, "Movies list retrieved successfully", slog.Int("count_returned", len(movies)), slog.Int("total_available", totalCount))
	h.respondJSON(w, r, http.StatusOK, response)
}

// GetMovieByID handles GET /movies/{id}.
func (h *MovieHandler) GetMovieByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID, err := movieIDFromRequest(r)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	movie, err := h.store.GetByID(ctx, movieID)
	if err != nil {
		h.respondStoreError(w, r, movieID, "Error finding movie", err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, movie)
}

// UpdateMovie handles PUT /movies/{id}. It runs behind the mutation guard.
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID, err := movieIDFromRequest(r)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	var req domain.UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode movie update request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.logger.WarnContext(ctx, "Movie update request validation failed", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, codeValidationFailed, "Validation failed: "+err.Error())
		return
	}

	movie := &domain.Movie{
		ID:     movieID,
		Title:  req.Title,
		Year:   req.Year,
		Rating: req.Rating,
	}
	if err := h.store.Update(ctx, movie); err != nil {
		h.respondStoreError(w, r, movieID, "Failed to update movie", err)
		return
	}

	h.logger.InfoContext(ctx, "Movie updated", slog.Int64("movieID", movieID))
	h.respondJSON(w, r, http.StatusOK, movie)
}

// DeleteMovie handles DELETE /movies/{id}. It runs behind the mutation guard
// and the not-found observer.
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID, err := movieIDFromRequest(r)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	if err := h.store.Delete(ctx, movieID); err != nil {
		h.respondStoreError(w, r, movieID, "Failed to delete movie", err)
		return
	}

	h.logger.InfoContext(ctx, "Movie deleted", slog.Int64("movieID", movieID))
	w.WriteHeader(http.StatusNoContent)
}

// GetDirectors handles GET /movies/{id}/directors.
func (h *MovieHandler) GetDirectors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID, err := movieIDFromRequest(r)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	directors, err := h.store.ListDirectors(ctx, movieID)
	if err != nil {
		h.respondStoreError(w, r, movieID, "Failed to list directors", err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, directors)
}

// respondStoreError maps ErrMovieNotFound to 404 and everything else to 500.
func (h *MovieHandler) respondStoreError(w http.ResponseWriter, r *http.Request, movieID int64, message string, err error) {
	if errors.Is(err, store.ErrMovieNotFound) {
		h.respondError(w, r, http.StatusNotFound, codeNotFound, "Movie not found")
		return
	}
	h.logger.ErrorContext(r.Context(), message, slog.Int64("movieID", movieID), slog.String("error", err.Error()))
	h.respondError(w, r, http.StatusInternalServerError, codeInternal, message)
}
