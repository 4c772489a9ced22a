package model

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusWantToRead Status = "WANT_TO_READ"
	StatusReading    Status = "READING"
	StatusRead       Status = "READ"
	StatusPaused     Status = "PAUSED"
	StatusAbandoned  Status = "ABANDONED"
)

// ParseStatus rejects anything outside the five reading states. Raw form
// values must pass through here before they reach the service layer.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusWantToRead, StatusReading, StatusRead, StatusPaused, StatusAbandoned:
		return st, nil
	default:
		return "", errors.Errorf("unknown status %q", s)
	}
}

type Book struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Genre       string    `json:"genre" db:"genre"`
	Year        int       `json:"year" db:"year"`
	Pages       int       `json:"pages" db:"pages"`
	Rating      float64   `json:"rating" db:"rating"`
	Synopsis    string    `json:"synopsis" db:"synopsis"`
	Notes       string    `json:"notes" db:"notes"`
	Cover       string    `json:"cover" db:"cover"`
	ISBN        string    `json:"isbn" db:"isbn"`
	Status      Status    `json:"status" db:"status"`
	CurrentPage int       `json:"currentPage" db:"current_page"`
	Progress    int       `json:"progress" db:"-"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ProgressPercent derives reading progress from currentPage/pages.
// It is never persisted.
func (b Book) ProgressPercent() int {
	if b.Pages <= 0 {
		return 0
	}
	return int(math.Round(float64(b.CurrentPage) / float64(b.Pages) * 100))
}

type CreateBookRequest struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	Genre       string  `json:"genre" validate:"required"`
	Year        int     `json:"year" validate:"required,gt=0"`
	Pages       int     `json:"pages" validate:"required,gt=0"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	Synopsis    string  `json:"synopsis"`
	Notes       string  `json:"notes"`
	Cover       string  `json:"cover"`
	ISBN        string  `json:"isbn"`
	Status      Status  `json:"status"`
	CurrentPage int     `json:"currentPage" validate:"gte=0"`
}

// UpdateBookRequest is a sparse patch: nil means "keep the current value".
type UpdateBookRequest struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Genre       *string  `json:"genre"`
	Year        *int     `json:"year"`
	Pages       *int     `json:"pages"`
	Rating      *float64 `json:"rating"`
	Synopsis    *string  `json:"synopsis"`
	Notes       *string  `json:"notes"`
	Cover       *string  `json:"cover"`
	ISBN        *string  `json:"isbn"`
	Status      *Status  `json:"status"`
	CurrentPage *int     `json:"currentPage"`
}

// GenreAll disables genre filtering when supplied by the view layer.
const GenreAll = "all"

type BookFilter struct {
	Search string
	Genre  string
	Status Status
}

type Stats struct {
	Total         int     `json:"total"`
	Reading       int     `json:"reading"`
	Read          int     `json:"read"`
	WantToRead    int     `json:"wantToRead"`
	Paused        int     `json:"paused"`
	Abandoned     int     `json:"abandoned"`
	TotalPages    int     `json:"totalPages"`
	AverageRating float64 `json:"averageRating"`
}

type StatusCount struct {
	Status Status `db:"status"`
	Count  int    `db:"cnt"`
}
