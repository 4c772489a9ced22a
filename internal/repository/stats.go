package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/bookshelf-app/bookshelf-service/internal/model"
)

func (r *repository) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	q := `
	select status, count(*) as cnt from books
	group by status
`
	var counts []model.StatusCount
	if err := r.db.SelectContext(ctx, &counts, q); err != nil {
		return nil, err
	}
	return counts, nil
}

// SumReadPages counts pages of finished books only: "pages read" means
// pages of books with status READ, not pages of everything on the shelf.
func (r *repository) SumReadPages(ctx context.Context) (int, error) {
	query, args, err := qb.Select("coalesce(sum(pages), 0)").
		From(booksTableName).
		Where(sq.Eq{"status": model.StatusRead}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var pages int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&pages); err != nil {
		return 0, err
	}
	return pages, nil
}

// AverageRating ignores unrated books (rating = 0) so they do not pull
// the average toward zero.
func (r *repository) AverageRating(ctx context.Context) (float64, error) {
	q := `
	select coalesce(avg(rating) filter (where rating > 0), 0) from books
`
	var rating float64
	if err := r.db.QueryRowContext(ctx, q).Scan(&rating); err != nil {
		return 0, err
	}
	return rating, nil
}
