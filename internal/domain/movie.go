// internal/domain/movie.go
package domain

// Movie is the catalog entity addressed by its integer id.
type Movie struct {
	ID        int64       `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	Year      int         `json:"year" db:"year"`
	Rating    float64     `json:"rating" db:"rating"`
	Directors []*Director `json:"directors,omitempty" db:"-"`
}

// Director of one or more movies. Names are unique.
type Director struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// CreateMovieRequest is the body of POST /movies.
type CreateMovieRequest struct {
	Title     string   `json:"title" validate:"required,min=3,max=100"`
	Year      int      `json:"year" validate:"omitempty,gte=1888,lte=2100"`
	Rating    float64  `json:"rating" validate:"gte=0,lte=10"`
	Directors []string `json:"directors,omitempty" validate:"omitempty,dive,min=2,max=100"`
}

// UpdateMovieRequest is the body of PUT /movies/{id}. It replaces the
// title, year and rating of the movie.
type UpdateMovieRequest struct {
	Title  string  `json:"title" validate:"required,min=3,max=100"`
	Year   int     `json:"year" validate:"omitempty,gte=1888,lte=2100"`
	Rating float64 `json:"rating" validate:"gte=0,lte=10"`
}
