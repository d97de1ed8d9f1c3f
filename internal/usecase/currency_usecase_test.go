package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestCurrencyUseCase_CreateCurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	alice := f.addUser(t, "alice", domain.RoleUser)

	uc := usecase.NewCurrencyUseCase(f.currencies, f.users, nil, f.ids, nil, zerolog.Nop())

	gbp, err := uc.CreateCurrency(ctx, admin.ID, usecase.CreateCurrencyInput{Code: "gbp", Name: "Pound", DecimalPlaces: 2})
	require.NoError(t, err)
	assert.Equal(t, "GBP", gbp.Code)

	_, err = uc.CreateCurrency(ctx, admin.ID, usecase.CreateCurrencyInput{Code: "GBP", Name: "Pound", DecimalPlaces: 2})
	require.ErrorIs(t, err, domain.ErrCurrencyExists)

	_, err = uc.CreateCurrency(ctx, alice.ID, usecase.CreateCurrencyInput{Code: "JPY", Name: "Yen"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.CreateCurrency(ctx, "", usecase.CreateCurrencyInput{Code: "BTC", Name: "Bitcoin", DecimalPlaces: 9})
	require.ErrorIs(t, err, domain.ErrInvalidDecimalPlaces)

	_, err = uc.CreateCurrency(ctx, "", usecase.CreateCurrencyInput{Code: "DOLLARS", Name: "Dollar", DecimalPlaces: 2})
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)

	list, err := uc.ListCurrencies(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestCurrencyUseCase_GetByCodeReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockCurrencyRepository()
	usd, err := domain.NewCurrency("cur-1", "USD", "US Dollar", 2, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, usd))

	cache := mocks.NewMockCache(ctrl)
	var stored []byte
	gomock.InOrder(
		cache.EXPECT().Get(ctx, "currency:code:USD").Return(nil, errors.New("miss")),
		cache.EXPECT().Set(ctx, "currency:code:USD", gomock.Any(), usecase.CurrencyCacheTTL).
			DoAndReturn(func(_ context.Context, _ string, value []byte, _ time.Duration) error {
				stored = value
				return nil
			}),
		cache.EXPECT().Get(ctx, "currency:code:USD").DoAndReturn(func(context.Context, string) ([]byte, error) {
			return stored, nil
		}),
	)

	uc := usecase.NewCurrencyUseCase(repo, nil, cache, mocks.NewMockIDGenerator(), nil, zerolog.Nop())

	first, err := uc.GetByCode(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, "cur-1", first.ID)

	second, err := uc.GetByCode(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(2), second.DecimalPlaces)

	assert.Equal(t, 1, repo.GetByCodeCalls)

	var decoded domain.Currency
	require.NoError(t, json.Unmarshal(stored, &decoded))
	assert.Equal(t, "USD", decoded.Code)
}

func TestCurrencyUseCase_CacheFailureFallsBackToRepository(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockCurrencyRepository()
	usd, err := domain.NewCurrency("cur-1", "USD", "US Dollar", 2, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, usd))

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused")).Times(3)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused")).Times(2)

	uc := usecase.NewCurrencyUseCase(repo, nil, cache, mocks.NewMockIDGenerator(), nil, zerolog.Nop())

	got, err := uc.GetByID(ctx, "cur-1")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Code)

	_, err = uc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrCurrencyNotFound)

	got, err = uc.GetByID(ctx, "cur-1")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Code)
}
