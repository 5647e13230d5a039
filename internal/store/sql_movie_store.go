// internal/store/sql_movie_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"beetle-movies/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Postgres error codes
	"github.com/mattn/go-sqlite3"
)

// orderByClauses whitelists the sort_by values accepted by List.
var orderByClauses = map[string]string{
	"title_asc":   "LOWER(title) ASC, id ASC",
	"title_desc":  "LOWER(title) DESC, id ASC",
	"year_asc":    "year ASC, id ASC",
	"year_desc":   "year DESC, id ASC",
	"rating_desc": "rating DESC, id ASC",
	"id_asc":      "id ASC",
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQLMovieStore implements MovieStore on top of sqlx. Queries are written
// with "?" placeholders and rebound for the connected driver.
type SQLMovieStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	fold   string // SQL function used for case-insensitive title matching
}

// NewSQLMovieStore creates a new SQLMovieStore.
func NewSQLMovieStore(db *sqlx.DB, logger *slog.Logger) (*SQLMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	fold := "LOWER"
	if db.DriverName() == sqliteDriverName {
		fold = "fold"
	}
	return &SQLMovieStore{db: db, logger: logger, fold: fold}, nil
}

// Create inserts the movie, creates any missing directors and links them.
func (s *SQLMovieStore) Create(ctx context.Context, movie *domain.Movie, directorNames []string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	s.logger.DebugContext(ctx, "Executing Create movie query", slog.String("title", movie.Title))
	insertMovie := tx.Rebind(`INSERT INTO movies (title, year, rating) VALUES (?, ?, ?) RETURNING id`)
	if err = tx.GetContext(ctx, &movie.ID, insertMovie, movie.Title, movie.Year, movie.Rating); err != nil {
		return s.translateWriteError(ctx, "failed to create movie", err)
	}

	insertDirector := tx.Rebind(`INSERT INTO directors (name) VALUES (?) ON CONFLICT (name) DO NOTHING`)
	selectDirector := tx.Rebind(`SELECT id FROM directors WHERE name = ?`)
	linkDirector := tx.Rebind(`INSERT INTO movie_directors (movie_id, director_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
	for _, name := range directorNames {
		if _, err = tx.ExecContext(ctx, insertDirector, name); err != nil {
			return s.translateWriteError(ctx, "failed to create director", err)
		}
		var directorID int64
		if err = tx.GetContext(ctx, &directorID, selectDirector, name); err != nil {
			return fmt.Errorf("failed to look up director %q: %w", name, err)
		}
		if _, err = tx.ExecContext(ctx, linkDirector, movie.ID, directorID); err != nil {
			return s.translateWriteError(ctx, "failed to link director", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movie: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie created successfully in DB", slog.Int64("movieID", movie.ID))
	return nil
}

// GetByID finds a movie by its ID.
func (s *SQLMovieStore) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	query := s.db.Rebind(`SELECT id, title, year, rating FROM movies WHERE id = ?`)
	var movie domain.Movie

	s.logger.DebugContext(ctx, "Executing GetMovieByID query", slog.Int64("movieID", id))
	if err := s.db.GetContext(ctx, &movie, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from DB", slog.Int64("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}
	return &movie, nil
}

// Update replaces title, year and rating of an existing movie.
func (s *SQLMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	query := s.db.Rebind(`UPDATE movies SET title = ?, year = ?, rating = ? WHERE id = ?`)

	s.logger.DebugContext(ctx, "Executing UpdateMovie query", slog.Int64("movieID", movie.ID))
	result, err := s.db.ExecContext(ctx, query, movie.Title, movie.Year, movie.Rating, movie.ID)
	if err != nil {
		return s.translateWriteError(ctx, "failed to update movie", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMovieNotFound
	}
	s.logger.InfoContext(ctx, "Movie updated successfully in DB", slog.Int64("movieID", movie.ID))
	return nil
}

// Delete removes the movie together with its director links.
func (s *SQLMovieStore) Delete(ctx context.Context, id int64) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM movie_directors WHERE movie_id = ?`), id); err != nil {
		return fmt.Errorf("failed to unlink directors: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM movies WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMovieNotFound
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie deleted from DB", slog.Int64("movieID", id))
	return nil
}

// List returns one page of movies and the total number of matches.
func (s *SQLMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error) {
	params.Normalize()

	where := ""
	var args []interface{}
	if params.Title != "" {
		where = " WHERE " + s.fold + `(title) LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(params.Title))+"%")
	}

	var totalCount int
	countQuery := s.db.Rebind(`SELECT COUNT(*) FROM movies` + where)
	s.logger.DebugContext(ctx, "Executing List movies count query", slog.String("query", countQuery), slog.Any("args", args))
	if err := s.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count movies in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}
	if totalCount == 0 {
		return []*domain.Movie{}, 0, nil
	}

	orderBy, ok := orderByClauses[params.SortBy]
	if !ok {
		orderBy = orderByClauses["id_asc"]
	}
	orderBy = strings.ReplaceAll(orderBy, "LOWER(", s.fold+"(")
	selectQuery := s.db.Rebind(`SELECT id, title, year, rating FROM movies` + where +
		` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	movies := []*domain.Movie{}
	s.logger.DebugContext(ctx, "Executing List movies select query", slog.String("query", selectQuery), slog.Any("args", args))
	if err := s.db.SelectContext(ctx, &movies, selectQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, totalCount, nil
}

// ListDirectors returns the directors of a movie ordered by id.
func (s *SQLMovieStore) ListDirectors(ctx context.Context, movieID int64) ([]*domain.Director, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM movies WHERE id = ?`), movieID); err != nil {
		return nil, fmt.Errorf("failed to check movie: %w", err)
	}
	if count == 0 {
		return nil, ErrMovieNotFound
	}

	query := s.db.Rebind(`SELECT d.id, d.name FROM directors d
		JOIN movie_directors md ON md.director_id = d.id
		WHERE md.movie_id = ? ORDER BY d.id`)
	directors := []*domain.Director{}
	if err := s.db.SelectContext(ctx, &directors, query, movieID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list directors from DB", slog.Int64("movieID", movieID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list directors: %w", err)
	}
	return directors, nil
}

// translateWriteError maps unique violations of either driver to ErrMovieAlreadyExists.
func (s *SQLMovieStore) translateWriteError(ctx context.Context, msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		s.logger.WarnContext(ctx, "Unique constraint violation in DB", slog.String("error", pqErr.Error()), slog.String("constraint", pqErr.Constraint))
		return ErrMovieAlreadyExists
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		s.logger.WarnContext(ctx, "Unique constraint violation in DB", slog.String("error", sqliteErr.Error()))
		return ErrMovieAlreadyExists
	}
	s.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
	return fmt.Errorf("%s: %w", msg, err)
}
