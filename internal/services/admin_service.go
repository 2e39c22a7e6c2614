package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/utils"
)

const (
	msgProductRequired   = "الاسم ورمز المنتج والسعر مطلوبة"
	msgProductCategory   = "يجب اختيار فئة للمنتج"
	msgProductPrice      = "السعر يجب أن يكون رقم موجب"
	msgProductNotFound   = "المنتج غير موجود"
	msgProductInUse      = "لا يمكن حذف منتج مرتبط بطلبات، قم بإلغاء تفعيله بدلاً من ذلك"
	msgCategoryRequired  = "اسم الفئة مطلوب"
	msgCategoryNotFound  = "الفئة غير موجودة"
	msgCategoryInUse     = "لا يمكن حذف فئة تحتوي على منتجات"
	msgMethodRequired    = "اسم طريقة الدفع مطلوب"
	msgMethodStatus      = "حالة طريقة الدفع غير صالحة"
	msgMethodNotFound    = "طريقة الدفع غير موجودة"
	msgGuideRequired     = "المنتج ورقم الخطوة مطلوبان"
	msgGuideNotFound     = "الدليل غير موجود"
	msgInvalidURL        = "الرابط غير صالح"
	msgSettingsRequired  = "الإعدادات مطلوبة"
	msgInvalidSettingKey = "مفتاح إعداد غير صالح"
)

// AdminService implements the catalog and settings management actions. Every mutation
// writes an audit row in the same transaction.
type AdminService struct {
	db      *gorm.DB
	catalog *CatalogService
}

func NewAdminService(db *gorm.DB, catalog *CatalogService) *AdminService {
	return &AdminService{db: db, catalog: catalog}
}

// UserSummary is a user with the number of orders they placed.
type UserSummary struct {
	models.User
	OrderCount int64 `json:"order_count"`
}

// ListUsers returns users, newest first, with their order counts.
func (s *AdminService) ListUsers(ctx context.Context, page *utils.Pagination) ([]UserSummary, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := db.Order("created_at desc")
	if page != nil {
		query = query.Offset(page.Offset).Limit(page.Limit)
	}
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	summaries := make([]UserSummary, 0, len(users))
	if len(users) == 0 {
		return summaries, total, nil
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	type countRow struct {
		UserID uuid.UUID
		Count  int64
	}
	var rows []countRow
	if err := db.Model(&models.Order{}).
		Select("user_id, count(*) as count").
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.UserID] = r.Count
	}

	for _, u := range users {
		summaries = append(summaries, UserSummary{User: u, OrderCount: counts[u.ID]})
	}
	return summaries, total, nil
}

// ---- products ----

type ProductInput struct {
	ID         string              `json:"id"`
	CategoryID string              `json:"category_id"`
	Category   string              `json:"category"`
	Name       *string             `json:"name"`
	SKU        *string             `json:"sku"`
	PriceMRU   *float64            `json:"price_mru"`
	Active     *bool               `json:"active"`
	Meta       *models.ProductMeta `json:"meta"`
}

// categoryRef accepts the category id under either key older clients use.
func (in ProductInput) categoryRef() string {
	if in.CategoryID != "" {
		return in.CategoryID
	}
	return in.Category
}

func (s *AdminService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := s.db.WithContext(ctx).
		Preload("Category").
		Order("created_at desc").
		Order("price_mru asc").
		Find(&products).Error
	return products, err
}

func (s *AdminService) CreateProduct(ctx context.Context, admin *models.User, in ProductInput) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.SKU == nil || strings.TrimSpace(*in.SKU) == "" || in.PriceMRU == nil {
		return nil, newError(ErrValidation, msgProductRequired)
	}
	if *in.PriceMRU <= 0 {
		return nil, newError(ErrValidation, msgProductPrice)
	}
	if in.categoryRef() == "" {
		return nil, newError(ErrValidation, msgProductCategory)
	}
	categoryID, err := parseID(in.categoryRef())
	if err != nil {
		return nil, err
	}

	product := models.Product{
		CategoryID: categoryID,
		Name:       strings.TrimSpace(*in.Name),
		SKU:        strings.TrimSpace(*in.SKU),
		PriceMRU:   *in.PriceMRU,
		Active:     true,
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if in.Meta != nil {
		product.Meta = *in.Meta
	}

	err = s.mutate(ctx, func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "id = ?", categoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrValidation, msgCategoryNotFound)
			}
			return err
		}
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		product.Category = &category
		return recordAudit(tx, admin.ID, "create_product", "product", product.ID.String(), productAuditMeta(product))
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, admin *models.User, in ProductInput) (*models.Product, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(ErrValidation, msgProductRequired)
		}
		updates["name"] = name
	}
	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			return nil, newError(ErrValidation, msgProductRequired)
		}
		updates["sku"] = sku
	}
	if in.PriceMRU != nil {
		if *in.PriceMRU <= 0 {
			return nil, newError(ErrValidation, msgProductPrice)
		}
		updates["price_mru"] = *in.PriceMRU
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	var product models.Product
	err = s.mutate(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, msgProductNotFound)
			}
			return err
		}
		if ref := in.categoryRef(); ref != "" {
			categoryID, err := parseID(ref)
			if err != nil {
				return err
			}
			var count int64
			if err := tx.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return newError(ErrValidation, msgCategoryNotFound)
			}
			updates["category_id"] = categoryID
		}

		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
		}
		// Meta goes through Select so the json serializer runs and empty values are kept.
		if in.Meta != nil {
			product.Meta = *in.Meta
			if err := tx.Model(&product).Select("meta").Updates(&product).Error; err != nil {
				return err
			}
		}

		if err := tx.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		meta := make(map[string]any, len(updates)+1)
		for k, v := range updates {
			meta[k] = v
		}
		if in.Meta != nil {
			meta["meta"] = in.Meta
		}
		return recordAudit(tx, admin.ID, "update_product", "product", id.String(), meta)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product that no order references, together with its guides.
func (s *AdminService) DeleteProduct(ctx context.Context, admin *models.User, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	return s.mutate(ctx, func(tx *gorm.DB) error {
		var orders int64
		if err := tx.Model(&models.Order{}).Where("product_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return newError(ErrConflict, msgProductInUse)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductGuide{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrNotFound, msgProductNotFound)
		}
		return recordAudit(tx, admin.ID, "delete_product", "product", id.String(), nil)
	})
}

func productAuditMeta(p models.Product) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"sku":         p.SKU,
		"price_mru":   p.PriceMRU,
		"active":      p.Active,
		"category_id": p.CategoryID.String(),
		"meta":        p.Meta,
	}
}

// ---- categories ----

type CategoryInput struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	ImageURL *string `json:"image_url"`
}

func (s *AdminService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error
	return categories, err
}

func (s *AdminService) CreateCategory(ctx context.Context, admin *models.User, in CategoryInput) (*models.Category, error) {
	if in.Name == nil || !textLength(strings.TrimSpace(*in.Name), 1, 120) {
		return nil, newError(ErrValidation, msgCategoryRequired)
	}
	category := models.Category{Name: strings.TrimSpace(*in.Name)}
	if in.ImageURL != nil {
		if !validURL(*in.ImageURL) {
			return nil, newError(ErrValidation, msgInvalidURL)
		}
		category.ImageURL = strings.TrimSpace(*in.ImageURL)
	}

	err := s.mutate(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
		return recordAudit(tx, admin.ID, "create_category", "category", category.ID.String(), map[string]any{
			"name":      category.Name,
			"image_url": category.ImageURL,
		})
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *AdminService) UpdateCategory(ctx context.Context, admin *models.User, in CategoryInput) (*models.Category, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		if !textLength(strings.TrimSpace(*in.Name), 1, 120) {
			return nil, newError(ErrValidation, msgCategoryRequired)
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.ImageURL != nil {
		if !validURL(*in.ImageURL) {
			return nil, newError(ErrValidation, msgInvalidURL)
		}
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}

	var category models.Category
	err = s.mutate(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, msgCategoryNotFound)
			}
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&category).Updates(updates).Error; err != nil {
				return err
			}
		}
		return recordAudit(tx, admin.ID, "update_category", "category", id.String(), updates)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *AdminService) DeleteCategory(ctx context.Context, admin *models.User, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	return s.mutate(ctx, func(tx *gorm.DB) error {
		var products int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return newError(ErrConflict, msgCategoryInUse)
		}
		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrNotFound, msgCategoryNotFound)
		}
		return recordAudit(tx, admin.ID, "delete_category", "category", id.String(), nil)
	})
}

// ---- payment methods ----

type PaymentMethodInput struct {
	ID      string  `json:"id"`
	Name    *string `json:"name"`
	LogoURL *string `json:"logo_url"`
	Status  *string `json:"status"`
}

func parseMethodStatus(value string) (models.PaymentMethodStatus, bool) {
	switch models.PaymentMethodStatus(value) {
	case models.PaymentMethodActive, models.PaymentMethodInactive:
		return models.PaymentMethodStatus(value), true
	}
	return "", false
}

func (s *AdminService) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethodRecord, error) {
	methods := make([]models.PaymentMethodRecord, 0)
	err := s.db.WithContext(ctx).Order("name asc").Find(&methods).Error
	return methods, err
}

func (s *AdminService) CreatePaymentMethod(ctx context.Context, admin *models.User, in PaymentMethodInput) (*models.PaymentMethodRecord, error) {
	if in.Name == nil || !textLength(strings.TrimSpace(*in.Name), 1, 120) {
		return nil, newError(ErrValidation, msgMethodRequired)
	}
	method := models.PaymentMethodRecord{Name: strings.TrimSpace(*in.Name), Status: models.PaymentMethodActive}
	if in.LogoURL != nil {
		if !validURL(*in.LogoURL) {
			return nil, newError(ErrValidation, msgInvalidURL)
		}
		method.LogoURL = strings.TrimSpace(*in.LogoURL)
	}
	if in.Status != nil {
		status, ok := parseMethodStatus(*in.Status)
		if !ok {
			return nil, newError(ErrValidation, msgMethodStatus)
		}
		method.Status = status
	}

	err := s.mutate(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&method).Error; err != nil {
			return err
		}
		return recordAudit(tx, admin.ID, "create_payment_method", "payment_method", method.ID.String(), map[string]any{
			"name":     method.Name,
			"logo_url": method.LogoURL,
			"status":   string(method.Status),
		})
	})
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (s *AdminService) UpdatePaymentMethod(ctx context.Context, admin *models.User, in PaymentMethodInput) (*models.PaymentMethodRecord, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		if !textLength(strings.TrimSpace(*in.Name), 1, 120) {
			return nil, newError(ErrValidation, msgMethodRequired)
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.LogoURL != nil {
		if !validURL(*in.LogoURL) {
			return nil, newError(ErrValidation, msgInvalidURL)
		}
		updates["logo_url"] = strings.TrimSpace(*in.LogoURL)
	}
	if in.Status != nil {
		status, ok := parseMethodStatus(*in.Status)
		if !ok {
			return nil, newError(ErrValidation, msgMethodStatus)
		}
		updates["status"] = status
	}

	var method models.PaymentMethodRecord
	err = s.mutate(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&method, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, msgMethodNotFound)
			}
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&method).Updates(updates).Error; err != nil {
				return err
			}
		}
		return recordAudit(tx, admin.ID, "update_payment_method", "payment_method", id.String(), updates)
	})
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (s *AdminService) DeletePaymentMethod(ctx context.Context, admin *models.User, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	return s.mutate(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.PaymentMethodRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrNotFound, msgMethodNotFound)
		}
		return recordAudit(tx, admin.ID, "delete_payment_method", "payment_method", id.String(), nil)
	})
}

// ---- product guides ----

type ProductGuideInput struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	StepNumber  *int    `json:"step_number"`
	ImageURL    *string `json:"image_url"`
	Description *string `json:"description"`
	SupportLink *string `json:"support_link"`
}

func (s *AdminService) ListProductGuides(ctx context.Context) ([]models.ProductGuide, error) {
	guides := make([]models.ProductGuide, 0)
	err := s.db.WithContext(ctx).
		Preload("Product").
		Order("product_id asc").
		Order("step_number asc").
		Find(&guides).Error
	return guides, err
}

func (s *AdminService) CreateProductGuide(ctx context.Context, admin *models.User, in ProductGuideInput) (*models.ProductGuide, error) {
	if in.ProductID == "" || in.StepNumber == nil || *in.StepNumber <= 0 {
		return nil, newError(ErrValidation, msgGuideRequired)
	}
	productID, err := parseID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if (in.ImageURL != nil && !validURL(*in.ImageURL)) || (in.SupportLink != nil && !validURL(*in.SupportLink)) {
		return nil, newError(ErrValidation, msgInvalidURL)
	}

	guide := models.ProductGuide{
		ProductID:   productID,
		StepNumber:  *in.StepNumber,
		ImageURL:    deref(in.ImageURL),
		Description: deref(in.Description),
		SupportLink: deref(in.SupportLink),
	}

	err = s.mutate(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return newError(ErrValidation, msgProductNotFound)
		}
		if err := tx.Create(&guide).Error; err != nil {
			return err
		}
		return recordAudit(tx, admin.ID, "create_product_guide", "product_guide", guide.ID.String(), map[string]any{
			"product_id":  productID.String(),
			"step_number": guide.StepNumber,
		})
	})
	if err != nil {
		return nil, err
	}
	return &guide, nil
}

func (s *AdminService) UpdateProductGuide(ctx context.Context, admin *models.User, in ProductGuideInput) (*models.ProductGuide, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.StepNumber != nil {
		if *in.StepNumber <= 0 {
			return nil, newError(ErrValidation, msgGuideRequired)
		}
		updates["step_number"] = *in.StepNumber
	}
	if in.ImageURL != nil {
		if !validURL(*in.ImageURL) {
			return nil, newError(ErrValidation, msgInvalidURL)
		}
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.SupportLink != nil {
		if !validURL(*in.SupportLink) {
			return nil, newError(ErrValidation, msgInvalidURL)
		}
		updates["support_link"] = strings.TrimSpace(*in.SupportLink)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	var guide models.ProductGuide
	err = s.mutate(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&guide, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, msgGuideNotFound)
			}
			return err
		}
		if in.ProductID != "" {
			productID, err := parseID(in.ProductID)
			if err != nil {
				return err
			}
			updates["product_id"] = productID
		}
		if len(updates) > 0 {
			if err := tx.Model(&guide).Updates(updates).Error; err != nil {
				return err
			}
		}
		return recordAudit(tx, admin.ID, "update_product_guide", "product_guide", id.String(), updates)
	})
	if err != nil {
		return nil, err
	}
	return &guide, nil
}

func (s *AdminService) DeleteProductGuide(ctx context.Context, admin *models.User, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	return s.mutate(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.ProductGuide{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrNotFound, msgGuideNotFound)
		}
		return recordAudit(tx, admin.ID, "delete_product_guide", "product_guide", id.String(), nil)
	})
}

// ---- settings ----

// UpdateSettings upserts each key with its JSON value.
func (s *AdminService) UpdateSettings(ctx context.Context, admin *models.User, settings map[string]json.RawMessage) error {
	if len(settings) == 0 {
		return newError(ErrValidation, msgSettingsRequired)
	}
	for key, value := range settings {
		if !textLength(strings.TrimSpace(key), 1, 64) || !json.Valid(value) {
			return newError(ErrValidation, msgInvalidSettingKey)
		}
	}

	now := time.Now()
	return s.mutate(ctx, func(tx *gorm.DB) error {
		meta := make(map[string]any, len(settings))
		for key, value := range settings {
			key = strings.TrimSpace(key)
			row := models.Setting{Key: key, Value: string(value), UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
			meta[key] = json.RawMessage(value)
		}
		return recordAudit(tx, admin.ID, "update_settings", "settings", "", meta)
	})
}

// mutate runs fn in a transaction and drops cached catalog reads once it commits.
func (s *AdminService) mutate(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := s.db.WithContext(ctx).Transaction(fn); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx)
	return nil
}

func validURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
