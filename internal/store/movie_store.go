package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"beetle-movies/internal/domain"
)

var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrMovieAlreadyExists = errors.New("movie with these identifying features already exists")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type MovieListParams struct {
	Page     int
	PageSize int
	Title    string // case-insensitive "contains" match
	SortBy   string
}

// Normalize clamps paging to the supported range.
func (p *MovieListParams) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	} else if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

type MovieStore interface {
	Create(ctx context.Context, movie *domain.Movie, directorNames []string) error
	GetByID(ctx context.Context, id int64) (*domain.Movie, error)
	Update(ctx context.Context, movie *domain.Movie) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error)
	ListDirectors(ctx context.Context, movieID int64) ([]*domain.Director, error)
}

// MemoryMovieStore keeps movies in process memory. Values handed out are
// always copies, so callers can't mutate the stored state.
type MemoryMovieStore struct {
	mu         sync.RWMutex
	logger     *slog.Logger
	nextID     int64
	nextDirID  int64
	movies     map[int64]*domain.Movie
	directors  map[int64]*domain.Director
	byName     map[string]int64
	movieLinks map[int64][]int64 // movie id -> director ids
}

func NewMemoryMovieStore(logger *slog.Logger) *MemoryMovieStore {
	return &MemoryMovieStore{
		logger:     logger,
		movies:     make(map[int64]*domain.Movie),
		directors:  make(map[int64]*domain.Director),
		byName:     make(map[string]int64),
		movieLinks: make(map[int64][]int64),
	}
}

func (m *MemoryMovieStore) Create(ctx context.Context, movie *domain.Movie, directorNames []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	movie.ID = m.nextID
	movieCopy := *movie
	movieCopy.Directors = nil
	m.movies[movie.ID] = &movieCopy

	seen := make(map[int64]bool, len(directorNames))
	for _, name := range directorNames {
		dirID, ok := m.byName[name]
		if !ok {
			m.nextDirID++
			dirID = m.nextDirID
			m.directors[dirID] = &domain.Director{ID: dirID, Name: name}
			m.byName[name] = dirID
		}
		if seen[dirID] {
			continue
		}
		seen[dirID] = true
		m.movieLinks[movie.ID] = append(m.movieLinks[movie.ID], dirID)
	}
	m.logger.DebugContext(ctx, "Movie created in memory store", slog.Int64("movieID", movie.ID), slog.String("title", movie.Title))
	return nil
}

func (m *MemoryMovieStore) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, ok := m.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	movieCopy := *movie
	return &movieCopy, nil
}

func (m *MemoryMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.movies[movie.ID]
	if !ok {
		return ErrMovieNotFound
	}
	stored.Title = movie.Title
	stored.Year = movie.Year
	stored.Rating = movie.Rating
	m.logger.DebugContext(ctx, "Movie updated in memory store", slog.Int64("movieID", movie.ID))
	return nil
}

func (m *MemoryMovieStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[id]; !ok {
		return ErrMovieNotFound
	}
	delete(m.movies, id)
	delete(m.movieLinks, id)
	m.logger.DebugContext(ctx, "Movie deleted from memory store", slog.Int64("movieID", id))
	return nil
}

func (m *MemoryMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	params.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(params.Title)
	var filtered []domain.Movie
	for _, movie := range m.movies {
		if needle != "" && !strings.Contains(strings.ToLower(movie.Title), needle) {
			continue
		}
		filtered = append(filtered, *movie)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
		switch params.SortBy {
		case "title_asc":
			if at == bt {
				return a.ID < b.ID
			}
			return at < bt
		case "title_desc":
			if at == bt {
				return a.ID < b.ID
			}
			return at > bt
		case "year_asc":
			if a.Year == b.Year {
				return a.ID < b.ID
			}
			return a.Year < b.Year
		case "year_desc":
			if a.Year == b.Year {
				return a.ID < b.ID
			}
			return a.Year > b.Year
		case "rating_desc":
			if a.Rating == b.Rating {
				return a.ID < b.ID
			}
			return a.Rating > b.Rating
		default: // "id_asc"
			return a.ID < b.ID
		}
	})

	totalCount := len(filtered)
	start := (params.Page - 1) * params.PageSize
	if start >= totalCount {
		return []*domain.Movie{}, totalCount, nil
	}
	end := start + params.PageSize
	if end > totalCount {
		end = totalCount
	}

	page := make([]*domain.Movie, 0, end-start)
	for i := start; i < end; i++ {
		movieCopy := filtered[i]
		page = append(page, &movieCopy)
	}
	return page, totalCount, nil
}

func (m *MemoryMovieStore) ListDirectors(ctx context.Context, movieID int64) ([]*domain.Director, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.movies[movieID]; !ok {
		return nil, ErrMovieNotFound
	}
	directors := make([]*domain.Director, 0, len(m.movieLinks[movieID]))
	for _, dirID := range m.movieLinks[movieID] {
		dirCopy := *m.directors[dirID]
		directors = append(directors, &dirCopy)
	}
	sort.Slice(directors, func(i, j int) bool { return directors[i].ID < directors[j].ID })
	return directors, nil
}
