package fees

import (
	"context"
	"errors"
	"testing"

	"libraryledger/internal/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type storeMock struct{ mock.Mock }

func (m *storeMock) LoadRates(ctx context.Context) (*Rates, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Rates), args.Error(1)
}

func (m *storeMock) SaveRates(ctx context.Context, rates Rates) (*Rates, error) {
	args := m.Called(ctx, rates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Rates), args.Error(1)
}

func TestGetRatesFallsBackToDefaults(t *testing.T) {
	store := &storeMock{}
	store.On("LoadRates", mock.Anything).Return(nil, nil)
	svc := NewService(store, Defaults(), zap.NewNop().Sugar())

	rates, err := svc.GetRates(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(20), rates.FinePerDay)
	require.Equal(t, int64(10), rates.RentPerDay)
	require.Nil(t, rates.UpdatedAt)
}

func TestGetRatesReturnsSaved(t *testing.T) {
	store := &storeMock{}
	store.On("LoadRates", mock.Anything).Return(&Rates{FinePerDay: 5, RentPerDay: 2}, nil)
	svc := NewService(store, Defaults(), zap.NewNop().Sugar())

	rates, err := svc.GetRates(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(5), rates.FinePerDay)
	require.Equal(t, int64(2), rates.RentPerDay)
}

func TestGetRatesStorageFailure(t *testing.T) {
	store := &storeMock{}
	store.On("LoadRates", mock.Anything).Return(nil, errors.New("db down"))
	svc := NewService(store, Defaults(), zap.NewNop().Sugar())

	_, err := svc.GetRates(context.Background())
	require.ErrorIs(t, err, errs.ErrStorage)
}

func TestUpdateRatesValidation(t *testing.T) {
	store := &storeMock{}
	svc := NewService(store, Defaults(), zap.NewNop().Sugar())

	_, err := svc.UpdateRates(context.Background(), -1, 10)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	store.AssertNotCalled(t, "SaveRates", mock.Anything, mock.Anything)
}

func TestUpdateRatesStampsTime(t *testing.T) {
	store := &storeMock{}
	store.On("SaveRates", mock.Anything, mock.MatchedBy(func(r Rates) bool {
		return r.FinePerDay == 30 && r.RentPerDay == 15 && r.UpdatedAt != nil
	})).Return(&Rates{FinePerDay: 30, RentPerDay: 15}, nil)
	svc := NewService(store, Defaults(), zap.NewNop().Sugar())

	rates, err := svc.UpdateRates(context.Background(), 30, 15)
	require.NoError(t, err)
	require.Equal(t, int64(30), rates.FinePerDay)
	store.AssertExpectations(t)
}
