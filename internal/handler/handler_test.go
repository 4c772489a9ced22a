package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookshelf-app/bookshelf-service/internal/errs"
	"github.com/bookshelf-app/bookshelf-service/internal/handler"
	"github.com/bookshelf-app/bookshelf-service/internal/model"
	"github.com/bookshelf-app/bookshelf-service/pkg/kafka"
	"github.com/bookshelf-app/bookshelf-service/pkg/validate"

	service_mocks "github.com/bookshelf-app/bookshelf-service/internal/handler/mocks"
)

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		target       string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok",
			target: "/api/v1/books?genre=" + url.QueryEscape("Ficção Científica"),
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					ListBooks(context.Background(), model.BookFilter{Genre: "Ficção Científica"}).
					Return([]model.Book{
						{
							ID:          "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
							Title:       "Duna",
							Author:      "Frank Herbert",
							Genre:       "Ficção Científica",
							Year:        2017,
							Pages:       688,
							Rating:      5,
							Status:      model.StatusReading,
							CurrentPage: 344,
							Progress:    50,
						},
					})
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[{"id":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"Duna","author":"Frank Herbert","genre":"Ficção Científica","year":2017,"pages":688,"rating":5,"synopsis":"","notes":"","cover":"","isbn":"","status":"READING","currentPage":344,"progress":50,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}]`,
			},
		},
		{
			name:   "ok. status filter",
			target: "/api/v1/books?status=READ",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					ListBooks(context.Background(), model.BookFilter{Status: model.StatusRead}).
					Return([]model.Book{})
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[]`,
			},
		},
		{
			name:         "err. unknown status",
			target:       "/api/v1/books?status=DROPPED",
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"unknown status \"DROPPED\""}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockBookService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, handler.NewNopEventLog(), log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/api/v1/books", h.ListBooks)

			r := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"title":"Duna","author":"Frank Herbert","genre":"Ficção Científica","year":2017,"pages":688}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), model.CreateBookRequest{
						Title:  "Duna",
						Author: "Frank Herbert",
						Genre:  "Ficção Científica",
						Year:   2017,
						Pages:  688,
					}).
					Return(model.Book{
						ID:     "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
						Title:  "Duna",
						Author: "Frank Herbert",
						Genre:  "Ficção Científica",
						Year:   2017,
						Pages:  688,
						Status: model.StatusWantToRead,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"Duna","author":"Frank Herbert","genre":"Ficção Científica","year":2017,"pages":688,"rating":0,"synopsis":"","notes":"","cover":"","isbn":"","status":"WANT_TO_READ","currentPage":0,"progress":0,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}`,
			},
		},
		{
			name:         "err. title required",
			body:         `{"author":"Frank Herbert","genre":"Ficção Científica","year":2017,"pages":688}`,
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'CreateBookRequest.Title' Error:Field validation for 'Title' failed on the 'required' tag"}`,
			},
		},
		{
			name:         "err. unknown status",
			body:         `{"title":"Duna","author":"Frank Herbert","genre":"Ficção Científica","year":2017,"pages":688,"status":"QUERO_LER"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"unknown status \"QUERO_LER\""}`,
			},
		},
		{
			name: "err. internal",
			body: `{"title":"Duna","author":"Frank Herbert","genre":"Ficção Científica","year":2017,"pages":688}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), gomock.Any()).
					Return(model.Book{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockBookService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, handler.NewNopEventLog(), log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/api/v1/books", h.CreateBook)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_UpdateBook(t *testing.T) {
	t.Parallel()
	const bookID = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
	currentPage := 344

	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok. partial patch",
			body: `{"currentPage":344}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					UpdateBook(context.Background(), bookID, model.UpdateBookRequest{CurrentPage: &currentPage}).
					Return(model.Book{
						ID:          bookID,
						Title:       "Duna",
						Author:      "Frank Herbert",
						Genre:       "Ficção Científica",
						Year:        2017,
						Pages:       688,
						Status:      model.StatusReading,
						CurrentPage: 344,
						Progress:    50,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"Duna","author":"Frank Herbert","genre":"Ficção Científica","year":2017,"pages":688,"rating":0,"synopsis":"","notes":"","cover":"","isbn":"","status":"READING","currentPage":344,"progress":50,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}`,
			},
		},
		{
			name: "err. not found",
			body: `{"currentPage":344}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					UpdateBook(context.Background(), bookID, gomock.Any()).
					Return(model.Book{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
		{
			name:         "err. unknown status",
			body:         `{"status":"LENDO"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"unknown status \"LENDO\""}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockBookService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, handler.NewNopEventLog(), log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.PATCH("/api/v1/books/:id", h.UpdateBook)

			r := httptest.NewRequest(http.MethodPatch, "/api/v1/books/"+bookID, strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetBook(t *testing.T) {
	t.Parallel()
	const bookID = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"

	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockBookService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(svc, handler.NewNopEventLog(), log)

	e := echo.New()
	e.GET("/api/v1/books/:id", h.GetBook)

	svc.EXPECT().GetBook(context.Background(), bookID).Return(nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/books/"+bookID, http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, `{"message":"not found"}`, strings.Trim(w.Body.String(), "\n"))
}

type capturingEventLog struct {
	events []kafka.BookEvent
}

func (l *capturingEventLog) Log(ev kafka.BookEvent) error {
	l.events = append(l.events, ev)
	return nil
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	const bookID = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"

	t.Run("ok. change event published", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		svc := service_mocks.NewMockBookService(c)
		events := &capturingEventLog{}
		h := handler.New(svc, events, zap.NewExample().Named("test"))

		e := echo.New()
		e.DELETE("/api/v1/books/:id", h.DeleteBook)

		svc.EXPECT().DeleteBook(context.Background(), bookID).Return(nil)

		r := httptest.NewRequest(http.MethodDelete, "/api/v1/books/"+bookID, http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Len(t, events.events, 1)
		require.Equal(t, kafka.EventTypeDeleted, events.events[0].Type)
		require.Equal(t, bookID, events.events[0].BookID)
		require.WithinDuration(t, time.Now().UTC(), events.events[0].Timestamp, time.Minute)
	})

	t.Run("err. second delete not found", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		svc := service_mocks.NewMockBookService(c)
		h := handler.New(svc, handler.NewNopEventLog(), zap.NewExample().Named("test"))

		e := echo.New()
		e.DELETE("/api/v1/books/:id", h.DeleteBook)

		svc.EXPECT().DeleteBook(context.Background(), bookID).Return(errs.ErrNotFound)

		r := httptest.NewRequest(http.MethodDelete, "/api/v1/books/"+bookID, http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, `{"message":"not found"}`, strings.Trim(w.Body.String(), "\n"))
	})
}

func TestHandler_GetStats(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockBookService(c)
	h := handler.New(svc, handler.NewNopEventLog(), zap.NewExample().Named("test"))

	e := echo.New()
	e.GET("/api/v1/stats", h.GetStats)

	svc.EXPECT().Stats(context.Background()).Return(model.Stats{
		Total:         5,
		Reading:       1,
		Read:          1,
		WantToRead:    1,
		Paused:        1,
		Abandoned:     1,
		TotalPages:    688,
		AverageRating: 4.5,
	})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/stats", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t,
		`{"total":5,"reading":1,"read":1,"wantToRead":1,"paused":1,"abandoned":1,"totalPages":688,"averageRating":4.5}`,
		strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_ListGenres(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockBookService(c)
	h := handler.New(svc, handler.NewNopEventLog(), zap.NewExample().Named("test"))

	e := echo.New()
	e.GET("/api/v1/genres", h.ListGenres)

	svc.EXPECT().ListGenres(context.Background()).Return([]string{"Fantasia", "Ficção Científica"})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/genres", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `["Fantasia","Ficção Científica"]`, strings.Trim(w.Body.String(), "\n"))
}
