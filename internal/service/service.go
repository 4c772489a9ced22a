package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bookshelf-app/bookshelf-service/internal/errs"
	"github.com/bookshelf-app/bookshelf-service/internal/model"
	bookRepo "github.com/bookshelf-app/bookshelf-service/internal/repository"
	"github.com/bookshelf-app/bookshelf-service/pkg/circuit_breaker"
)

type Service struct {
	log  *zap.Logger
	repo bookRepo.Repository
	cb   circuit_breaker.CircuitBreaker
}

func NewService(repo bookRepo.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
		cb:   circuit_breaker.New(100, time.Second, 0.2, 2),
	}
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	if err := validateCreate(req); err != nil {
		return model.Book{}, err
	}
	book, err := s.repo.CreateBook(ctx, req)
	if err != nil {
		return model.Book{}, err
	}
	book.Progress = book.ProgressPercent()
	return book, nil
}

func (s *Service) UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error) {
	book, err := s.repo.UpdateBook(ctx, id, req)
	if err != nil {
		return model.Book{}, err
	}
	book.Progress = book.ProgressPercent()
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return s.repo.DeleteBook(ctx, id)
}

// GetBook never fails: absence and store errors both surface as nil,
// a transient read failure must not break a page render.
func (s *Service) GetBook(ctx context.Context, id string) *model.Book {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.log.Error("GetBook", zap.String("id", id), zap.Error(err))
		}
		return nil
	}
	book.Progress = book.ProgressPercent()
	return &book
}

func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter) []model.Book {
	books, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		s.log.Error("ListBooks", zap.Error(err))
		return []model.Book{}
	}
	for i := range books {
		books[i].Progress = books[i].ProgressPercent()
	}
	if books == nil {
		books = []model.Book{}
	}
	return books
}

func (s *Service) ListGenres(ctx context.Context) []string {
	genres, err := s.repo.ListGenres(ctx)
	if err != nil {
		s.log.Error("ListGenres", zap.Error(err))
		return []string{}
	}
	if genres == nil {
		genres = []string{}
	}
	return genres
}

// Stats assembles the collection summary. Statistics are advisory:
// any store failure degrades to a zeroed summary, and the breaker
// short-circuits the queries while the store keeps failing.
func (s *Service) Stats(ctx context.Context) model.Stats {
	var stats model.Stats
	if err := s.cb.Call(func() error {
		collected, err := s.collectStats(ctx)
		if err != nil {
			return err
		}
		stats = collected
		return nil
	}); err != nil {
		if errors.Is(err, circuit_breaker.ErrOpenCB) {
			err = errs.ErrStoreUnavailable
		}
		s.log.Warn("stats degraded to zeroes", zap.Error(err))
		return model.Stats{}
	}
	return stats
}

// collectStats issues the aggregation queries concurrently. They are
// read-only and commute; a small skew between them is acceptable under
// the single-writer model.
func (s *Service) collectStats(ctx context.Context) (model.Stats, error) {
	var (
		counts []model.StatusCount
		pages  int
		rating float64
	)
	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		var err error
		counts, err = s.repo.CountByStatus(ctx)
		return err
	})
	gg.Go(func() error {
		var err error
		pages, err = s.repo.SumReadPages(ctx)
		return err
	})
	gg.Go(func() error {
		var err error
		rating, err = s.repo.AverageRating(ctx)
		return err
	})
	if err := gg.Wait(); err != nil {
		return model.Stats{}, err
	}

	stats := model.Stats{
		TotalPages:    pages,
		AverageRating: rating,
	}
	for _, c := range counts {
		stats.Total += c.Count
		switch c.Status {
		case model.StatusReading:
			stats.Reading = c.Count
		case model.StatusRead:
			stats.Read = c.Count
		case model.StatusWantToRead:
			stats.WantToRead = c.Count
		case model.StatusPaused:
			stats.Paused = c.Count
		case model.StatusAbandoned:
			stats.Abandoned = c.Count
		}
	}
	return stats, nil
}

func validateCreate(req model.CreateBookRequest) error {
	if req.Title == "" || req.Author == "" || req.Genre == "" {
		return errors.Wrap(errs.ErrValidation, "title, author and genre are required")
	}
	if req.Year <= 0 || req.Pages <= 0 {
		return errors.Wrap(errs.ErrValidation, "year and pages must be positive")
	}
	if req.Rating < 0 || req.Rating > 5 {
		return errors.Wrap(errs.ErrValidation, "rating must be within [0,5]")
	}
	if req.CurrentPage < 0 {
		return errors.Wrap(errs.ErrValidation, "currentPage must not be negative")
	}
	return nil
}
