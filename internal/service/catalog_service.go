package service

import (
	"context"

	"pointshop/internal/cache"
	"pointshop/internal/database"
	"pointshop/internal/domain"
	"pointshop/internal/repository"
)

type CatalogEntry struct {
	Class string `json:"class"`
	Cost  int64  `json:"cost"`
	Stock int64  `json:"stock"`
}

// CatalogService serves display reads of prices and stock. Figures may lag
// the store by the settings cache TTL; redemption never relies on them.
type CatalogService struct {
	uow      *database.UnitOfWork
	settings *cache.SettingsCache
}

// NewCatalogService builds the service. A nil cache reads settings from the store every time.
func NewCatalogService(uow *database.UnitOfWork, settings *cache.SettingsCache) *CatalogService {
	if settings == nil {
		settings = cache.NewSettingsCache(nil, 0, SettingsLoader(uow), nil)
	}
	return &CatalogService{uow: uow, settings: settings}
}

// SettingsLoader reads the authoritative settings snapshot from the pool.
func SettingsLoader(uow *database.UnitOfWork) cache.Loader {
	return func(ctx context.Context) (domain.Settings, error) {
		s, err := repository.NewSettingRepository(uow.DB()).Snapshot(ctx)
		return s, database.Classify(err)
	}
}

func (s *CatalogService) Settings(ctx context.Context) (domain.Settings, error) {
	return s.settings.Snapshot(ctx)
}

func (s *CatalogService) Stock(ctx context.Context) (map[string]int64, error) {
	stock, err := repository.NewCouponRepository(s.uow.DB()).Stock(ctx)
	return stock, database.Classify(err)
}

// Catalog lists every coupon class with its cost and unconsumed stock.
func (s *CatalogService) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := s.Stock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CatalogEntry, 0, len(domain.CouponClasses))
	for _, class := range domain.CouponClasses {
		cost, _ := settings.Cost(class)
		out = append(out, CatalogEntry{Class: class, Cost: cost, Stock: stock[class]})
	}
	return out, nil
}

// Invalidate drops cached settings after a change.
func (s *CatalogService) Invalidate(ctx context.Context) { s.settings.Invalidate(ctx) }
