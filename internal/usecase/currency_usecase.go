package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

const (
	currencyByIDKey   = "currency:id:"
	currencyByCodeKey = "currency:code:"
)

// CurrencyUseCase manages the currency catalogue. Lookups are served through
// the cache when one is configured; cache failures only cost a database read.
type CurrencyUseCase struct {
	currencyRepo CurrencyRepository
	userRepo     UserRepository
	cache        Cache
	idGen        IDGenerator
	policy       domain.Policy
	logger       zerolog.Logger
}

// NewCurrencyUseCase creates a new CurrencyUseCase. cache may be nil.
func NewCurrencyUseCase(
	currencyRepo CurrencyRepository,
	userRepo UserRepository,
	cache Cache,
	idGen IDGenerator,
	policy domain.Policy,
	logger zerolog.Logger,
) *CurrencyUseCase {
	if policy == nil {
		policy = domain.RolePolicy{}
	}

	return &CurrencyUseCase{
		currencyRepo: currencyRepo,
		userRepo:     userRepo,
		cache:        cache,
		idGen:        idGen,
		policy:       policy,
		logger:       logger,
	}
}

// CreateCurrencyInput represents input for creating a currency
type CreateCurrencyInput struct {
	Code          string
	Name          string
	DecimalPlaces int32
}

// CreateCurrency adds a currency. Only admins may do this; an empty actorID
// is treated as the system (seeding, CLI).
func (uc *CurrencyUseCase) CreateCurrency(ctx context.Context, actorID string, input CreateCurrencyInput) (*domain.Currency, error) {
	currency, err := uc.createCurrency(ctx, actorID, input)
	return currency, classify(ctx, uc.logger, "currency.create", err)
}

func (uc *CurrencyUseCase) createCurrency(ctx context.Context, actorID string, input CreateCurrencyInput) (*domain.Currency, error) {
	if actorID != "" {
		actor, err := loadActor(ctx, nil, uc.userRepo, actorID)
		if err != nil {
			return nil, err
		}
		if err := uc.policy.Allow(actor, domain.ActionCreateCurrency, domain.Resource{}); err != nil {
			return nil, err
		}
	}

	currency, err := domain.NewCurrency(uc.idGen.Generate(), input.Code, input.Name, input.DecimalPlaces, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := uc.currencyRepo.Create(ctx, currency); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("currency", currency.Code).
		Int32("decimal_places", currency.DecimalPlaces).
		Msg("currency created")

	return currency, nil
}

// ListCurrencies returns all currencies ordered by code.
func (uc *CurrencyUseCase) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	currencies, err := uc.currencyRepo.List(ctx)
	return currencies, classify(ctx, uc.logger, "currency.list", err)
}

// GetByID returns a currency by id.
func (uc *CurrencyUseCase) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	currency, err := uc.cached(ctx, currencyByIDKey+id, func() (*domain.Currency, error) {
		return uc.currencyRepo.GetByID(ctx, nil, id)
	})
	return currency, classify(ctx, uc.logger, "currency.get", err)
}

// GetByCode returns a currency by its ISO code.
func (uc *CurrencyUseCase) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	currency, err := uc.cached(ctx, currencyByCodeKey+code, func() (*domain.Currency, error) {
		return uc.currencyRepo.GetByCode(ctx, code)
	})
	return currency, classify(ctx, uc.logger, "currency.get", err)
}

func (uc *CurrencyUseCase) cached(ctx context.Context, key string, load func() (*domain.Currency, error)) (*domain.Currency, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			var currency domain.Currency
			if err := json.Unmarshal(data, &currency); err == nil {
				return &currency, nil
			}
		}
	}

	currency, err := load()
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		data, err := json.Marshal(currency)
		if err == nil {
			err = uc.cache.Set(ctx, key, data, CurrencyCacheTTL)
		}
		if err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("failed to cache currency")
		}
	}

	return currency, nil
}
