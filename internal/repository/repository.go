package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bookshelf-app/bookshelf-service/internal/errs"
	"github.com/bookshelf-app/bookshelf-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error)
	ListGenres(ctx context.Context) ([]string, error)

	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
	SumReadPages(ctx context.Context) (int, error)
	AverageRating(ctx context.Context) (float64, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const booksTableName = `books`

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{
	"id", "title", "author", "genre", "year", "pages", "rating",
	"synopsis", "notes", "cover", "isbn", "status", "current_page",
	"created_at", "updated_at",
}

func (r *repository) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	status := req.Status
	if status == "" {
		status = model.StatusWantToRead
	}
	now := time.Now().UTC()

	query, args, err := qb.Insert(booksTableName).
		Columns(bookColumns...).
		Values(uuid.New(), req.Title, req.Author, req.Genre, req.Year, req.Pages, req.Rating,
			req.Synopsis, req.Notes, req.Cover, req.ISBN, status, req.CurrentPage,
			now, now).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		if isConstraintErr(err) {
			return model.Book{}, errors.Wrap(errs.ErrValidation, err.Error())
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error) {
	// updated_at advances on every call, even for an empty patch
	q := qb.Update(booksTableName).
		Set("updated_at", time.Now().UTC())

	if req.Title != nil {
		q = q.Set("title", *req.Title)
	}
	if req.Author != nil {
		q = q.Set("author", *req.Author)
	}
	if req.Genre != nil {
		q = q.Set("genre", *req.Genre)
	}
	if req.Year != nil {
		q = q.Set("year", *req.Year)
	}
	if req.Pages != nil {
		q = q.Set("pages", *req.Pages)
	}
	if req.Rating != nil {
		q = q.Set("rating", *req.Rating)
	}
	if req.Synopsis != nil {
		q = q.Set("synopsis", *req.Synopsis)
	}
	if req.Notes != nil {
		q = q.Set("notes", *req.Notes)
	}
	if req.Cover != nil {
		q = q.Set("cover", *req.Cover)
	}
	if req.ISBN != nil {
		q = q.Set("isbn", *req.ISBN)
	}
	if req.Status != nil {
		q = q.Set("status", *req.Status)
	}
	if req.CurrentPage != nil {
		q = q.Set("current_page", *req.CurrentPage)
	}

	query, args, err := q.Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("UpdateBook", zap.String("q", query), zap.Any("args", args))
		if isConstraintErr(err) {
			return model.Book{}, errors.Wrap(errs.ErrValidation, err.Error())
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) DeleteBook(ctx context.Context, id string) error {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) GetBook(ctx context.Context, id string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("created_at desc")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"author": pattern},
			sq.ILike{"genre": pattern},
			sq.ILike{"synopsis": pattern},
		})
	}
	if filter.Genre != "" && filter.Genre != model.GenreAll {
		q = q.Where(sq.Eq{"genre": filter.Genre})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) ListGenres(ctx context.Context) ([]string, error) {
	q := `
	select distinct genre from books
	where genre <> ''
	order by genre asc
`
	var genres []string
	if err := r.db.SelectContext(ctx, &genres, q); err != nil {
		return nil, err
	}
	return genres, nil
}

func isConstraintErr(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
		return true
	}
	return false
}
