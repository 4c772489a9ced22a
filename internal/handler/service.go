package handler

import (
	"context"

	"github.com/bookshelf-app/bookshelf-service/internal/model"
	"github.com/bookshelf-app/bookshelf-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	GetBook(ctx context.Context, id string) *model.Book
	ListBooks(ctx context.Context, filter model.BookFilter) []model.Book
	ListGenres(ctx context.Context) []string
	Stats(ctx context.Context) model.Stats
}

var _ BookService = (*service.Service)(nil)
