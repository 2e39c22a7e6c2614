package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/cache"
	"github.com/example/maurigift/internal/models"
)

const (
	cacheKeyProducts   = "catalog:products:v1"
	cacheKeyCategories = "catalog:categories:v1"
)

// SettingsDefaults are returned for settings keys that were never stored.
type SettingsDefaults struct {
	PaymentNumber string
	AppName       string
	AppVersion    string
}

func (d SettingsDefaults) asMap() map[string]any {
	return map[string]any{
		models.SettingPaymentNumber: d.PaymentNumber,
		models.SettingAppName:       d.AppName,
		models.SettingAppVersion:    d.AppVersion,
	}
}

// CatalogService serves the read side of the storefront.
type CatalogService struct {
	db       *gorm.DB
	cache    cache.Cache
	ttl      time.Duration
	defaults SettingsDefaults
}

func NewCatalogService(db *gorm.DB, c cache.Cache, ttl time.Duration, defaults SettingsDefaults) *CatalogService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CatalogService{db: db, cache: c, ttl: ttl, defaults: defaults}
}

// ListProducts returns active products grouped by category name, cheapest first.
func (s *CatalogService) ListProducts(ctx context.Context) (map[string][]models.Product, error) {
	grouped := make(map[string][]models.Product)
	if s.fromCache(ctx, cacheKeyProducts, &grouped) {
		return grouped, nil
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("active = ?", true).
		Order("price_mru asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		if p.Category == nil {
			continue
		}
		grouped[p.Category.Name] = append(grouped[p.Category.Name], p)
	}

	s.toCache(ctx, cacheKeyProducts, grouped)
	return grouped, nil
}

// ListCategories returns every category with its number of active products, oldest first.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if s.fromCache(ctx, cacheKeyCategories, &categories) {
		return categories, nil
	}

	db := s.db.WithContext(ctx)
	if err := db.Order("created_at asc").Find(&categories).Error; err != nil {
		return nil, err
	}

	type countRow struct {
		CategoryID uuid.UUID
		Count      int64
	}
	var rows []countRow
	if err := db.Model(&models.Product{}).
		Select("category_id, count(*) as count").
		Where("active = ?", true).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	for i := range categories {
		categories[i].ProductCount = counts[categories[i].ID]
	}

	s.toCache(ctx, cacheKeyCategories, categories)
	return categories, nil
}

// CategoryNames returns categories ordered by name.
func (s *CatalogService) CategoryNames(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error
	return categories, err
}

// PaymentMethods returns the active payment method listings.
func (s *CatalogService) PaymentMethods(ctx context.Context) ([]models.PaymentMethodRecord, error) {
	methods := make([]models.PaymentMethodRecord, 0)
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PaymentMethodActive).
		Order("name asc").
		Find(&methods).Error
	return methods, err
}

// ProductGuides returns redemption steps for a product. Customers must own a completed order for it.
func (s *CatalogService) ProductGuides(ctx context.Context, user *models.User, productID string) ([]models.ProductGuide, error) {
	id, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if !user.IsAdmin() {
		var completed int64
		if err := db.Model(&models.Order{}).
			Where("user_id = ? AND product_id = ? AND status = ?", user.ID, id, models.OrderCompleted).
			Count(&completed).Error; err != nil {
			return nil, err
		}
		if completed == 0 {
			return nil, newError(ErrForbidden, msgGuideLocked)
		}
	}

	guides := make([]models.ProductGuide, 0)
	err = db.Where("product_id = ?", id).Order("step_number asc").Find(&guides).Error
	return guides, err
}

// Settings returns every setting, falling back to configured defaults.
func (s *CatalogService) Settings(ctx context.Context) (map[string]any, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	settings := s.defaults.asMap()
	for _, row := range rows {
		var value any
		if err := json.Unmarshal([]byte(row.Value), &value); err != nil {
			value = row.Value
		}
		settings[row.Key] = value
	}
	return settings, nil
}

// Invalidate drops cached catalog reads after an admin mutation.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cacheKeyProducts, cacheKeyCategories); err != nil {
		logrus.WithError(err).Warn("catalog cache invalidation failed")
	}
}

func (s *CatalogService) fromCache(ctx context.Context, key string, dest any) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("catalog cache read failed")
		return false
	}
	return hit
}

func (s *CatalogService) toCache(ctx context.Context, key string, value any) {
	if s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logrus.WithField("key", key).WithError(err).Warn("catalog cache write failed")
	}
}
