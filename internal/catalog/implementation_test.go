package catalog

import (
	"context"
	"errors"
	"math"
	"testing"

	"libraryledger/internal/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type storeMock struct{ mock.Mock }

func (m *storeMock) GetBook(ctx context.Context, bookID string) (*Book, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Book), args.Error(1)
}

func (m *storeMock) UpsertBook(ctx context.Context, book Book) (*Book, error) {
	args := m.Called(ctx, book)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Book), args.Error(1)
}

func (m *storeMock) ListBooks(ctx context.Context, filter Filter) ([]Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Listing), args.Error(1)
}

func newTestService(store Store) Service {
	return NewService(store, zap.NewNop().Sugar())
}

func TestGetBook(t *testing.T) {
	store := &storeMock{}
	store.On("GetBook", mock.Anything, "B123").Return(&Book{ID: "B123", Title: "Dune"}, nil)
	store.On("GetBook", mock.Anything, "missing").Return(nil, errs.NotFoundf("book missing"))
	store.On("GetBook", mock.Anything, "broken").Return(nil, errors.New("conn reset"))
	svc := newTestService(store)

	book, err := svc.GetBook(context.Background(), "B123")
	require.NoError(t, err)
	require.Equal(t, "Dune", book.Title)

	_, err = svc.GetBook(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.GetBook(context.Background(), "broken")
	require.ErrorIs(t, err, errs.ErrStorage)

	_, err = svc.GetBook(context.Background(), " ")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestAddBookValidation(t *testing.T) {
	store := &storeMock{}
	svc := newTestService(store)

	tests := []struct {
		name string
		book Book
	}{
		{"missing id", Book{Title: "Dune"}},
		{"missing title", Book{ID: "B1"}},
		{"negative quantity", Book{ID: "B1", Title: "Dune", Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddBook(context.Background(), tt.book)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
	store.AssertNotCalled(t, "UpsertBook", mock.Anything, mock.Anything)
}

func TestAddBookTrimsAndSaves(t *testing.T) {
	store := &storeMock{}
	want := Book{ID: "B1", Title: "Dune", Author: "Herbert", Quantity: 2}
	store.On("UpsertBook", mock.Anything, want).Return(&want, nil)
	svc := newTestService(store)

	saved, err := svc.AddBook(context.Background(), Book{ID: " B1 ", Title: "Dune ", Author: "Herbert", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, want, *saved)
	store.AssertExpectations(t)
}

func TestListNormalisesPaging(t *testing.T) {
	store := &storeMock{}
	store.On("ListBooks", mock.Anything, Filter{Title: "dune", Page: 1, Count: defaultListCount}).
		Return([]Listing{{Book: Book{ID: "B1"}, Status: StatusIssued}}, nil)
	store.On("ListBooks", mock.Anything, Filter{Page: 3, Count: maxListCount}).Return([]Listing{}, nil)
	svc := newTestService(store)

	books, err := svc.List(context.Background(), Filter{Title: "dune"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, StatusIssued, books[0].Status)

	_, err = svc.List(context.Background(), Filter{Page: 3, Count: 1000})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestFilterOffset(t *testing.T) {
	require.Equal(t, 0, Filter{Page: 1, Count: 20}.Offset())
	require.Equal(t, 40, Filter{Page: 3, Count: 20}.Offset())
	require.Equal(t, math.MaxInt, Filter{Page: math.MaxInt, Count: 2}.Offset())
}

func TestListHugePageIsEmpty(t *testing.T) {
	store := &storeMock{}
	svc := newTestService(store)

	books, err := svc.List(context.Background(), Filter{Page: math.MaxInt, Count: 2})
	require.NoError(t, err)
	require.NotNil(t, books)
	require.Empty(t, books)

	books, err = svc.List(context.Background(), Filter{Page: math.MaxInt / 10})
	require.NoError(t, err)
	require.Empty(t, books)
	store.AssertNotCalled(t, "ListBooks", mock.Anything, mock.Anything)
}
