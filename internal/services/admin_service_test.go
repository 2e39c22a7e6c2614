package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/utils"
)

func ptr[T any](v T) *T { return &v }

type adminEnv struct {
	db      *gorm.DB
	cache   *mapCache
	catalog *CatalogService
	svc     *AdminService
	admin   *models.User
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()

	db := newTestDB(t)
	c := newMapCache()
	catalog := NewCatalogService(db, c, time.Minute, SettingsDefaults{AppName: "MauriGifts"})
	return &adminEnv{
		db:      db,
		cache:   c,
		catalog: catalog,
		svc:     NewAdminService(db, catalog),
		admin:   createUser(t, db, "99887766", models.RoleAdmin),
	}
}

func TestAdmin_ProductRoundTrip(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	category, err := env.svc.CreateCategory(ctx, env.admin, CategoryInput{Name: ptr("Free Fire")})
	require.NoError(t, err)

	// Prime the cache so the create has something to invalidate.
	_, err = env.catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.True(t, env.cache.has(cacheKeyProducts))

	product, err := env.svc.CreateProduct(ctx, env.admin, ProductInput{
		Category: category.ID.String(),
		Name:     ptr("100 Diamonds"),
		SKU:      ptr("FF-100"),
		PriceMRU: ptr(80.0),
		Meta:     &models.ProductMeta{Amount: "100", Currency: "Diamonds"},
	})
	require.NoError(t, err)
	assert.True(t, product.Active)
	assert.Equal(t, category.ID, product.CategoryID)
	assert.False(t, env.cache.has(cacheKeyProducts))

	grouped, err := env.catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, grouped["Free Fire"], 1)
	assert.Equal(t, "100 Diamonds", grouped["Free Fire"][0].Name)
	assert.Equal(t, "100", grouped["Free Fire"][0].Meta.Amount)

	updated, err := env.svc.UpdateProduct(ctx, env.admin, ProductInput{
		ID:       product.ID.String(),
		PriceMRU: ptr(90.0),
		Active:   ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.PriceMRU)
	assert.False(t, updated.Active)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "Free Fire", updated.Category.Name)

	grouped, err = env.catalog.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, grouped["Free Fire"])

	all, err := env.svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, env.svc.DeleteProduct(ctx, env.admin, product.ID.String()))
	assert.EqualValues(t, 0, countRows(t, env.db, &models.Product{}, ""))

	for _, action := range []string{"create_category", "create_product", "update_product", "delete_product"} {
		assert.EqualValues(t, 1, countRows(t, env.db, &models.AuditLog{}, "action = ? AND actor_id = ?", action, env.admin.ID), action)
	}
}

func TestAdmin_ProductValidation(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	category, err := env.svc.CreateCategory(ctx, env.admin, CategoryInput{Name: ptr("PUBG")})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   ProductInput
	}{
		{name: "missing name", in: ProductInput{CategoryID: category.ID.String(), SKU: ptr("X"), PriceMRU: ptr(1.0)}},
		{name: "zero price", in: ProductInput{CategoryID: category.ID.String(), Name: ptr("X"), SKU: ptr("X"), PriceMRU: ptr(0.0)}},
		{name: "missing category", in: ProductInput{Name: ptr("X"), SKU: ptr("X"), PriceMRU: ptr(1.0)}},
		{name: "unknown category", in: ProductInput{CategoryID: "00000000-0000-0000-0000-000000000001", Name: ptr("X"), SKU: ptr("X"), PriceMRU: ptr(1.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateProduct(ctx, env.admin, tt.in)
			requireKind(t, err, ErrValidation)
		})
	}
	assert.EqualValues(t, 0, countRows(t, env.db, &models.Product{}, ""))
}

func TestAdmin_DeleteGuards(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	f := seedCatalog(t, env.db)
	customer := createUser(t, env.db, "22334455", models.RoleUser)

	order := models.Order{
		UserID:        customer.ID,
		ProductID:     f.product.ID,
		PaymentMethod: models.PaymentBankily,
		PaymentNumber: "1",
		Status:        models.OrderUnderReview,
	}
	require.NoError(t, env.db.Create(&order).Error)

	err := env.svc.DeleteProduct(ctx, env.admin, f.product.ID.String())
	requireKind(t, err, ErrConflict)

	err = env.svc.DeleteCategory(ctx, env.admin, f.category.ID.String())
	requireKind(t, err, ErrConflict)

	err = env.svc.DeleteProduct(ctx, env.admin, "00000000-0000-0000-0000-000000000001")
	requireKind(t, err, ErrNotFound)
}

func TestAdmin_PaymentMethods(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreatePaymentMethod(ctx, env.admin, PaymentMethodInput{Name: ptr("Bankily"), Status: ptr("paused")})
	requireKind(t, err, ErrValidation)

	_, err = env.svc.CreatePaymentMethod(ctx, env.admin, PaymentMethodInput{Name: ptr("Bankily"), LogoURL: ptr("ftp://logo")})
	requireKind(t, err, ErrValidation)

	method, err := env.svc.CreatePaymentMethod(ctx, env.admin, PaymentMethodInput{
		Name:    ptr("Bankily"),
		LogoURL: ptr("https://cdn.example.com/bankily.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodActive, method.Status)

	method, err = env.svc.UpdatePaymentMethod(ctx, env.admin, PaymentMethodInput{ID: method.ID.String(), Status: ptr("inactive")})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodInactive, method.Status)

	active, err := env.catalog.PaymentMethods(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, env.svc.DeletePaymentMethod(ctx, env.admin, method.ID.String()))
	err = env.svc.DeletePaymentMethod(ctx, env.admin, method.ID.String())
	requireKind(t, err, ErrNotFound)
}

func TestAdmin_ProductGuides(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	f := seedCatalog(t, env.db)

	_, err := env.svc.CreateProductGuide(ctx, env.admin, ProductGuideInput{ProductID: f.product.ID.String(), StepNumber: ptr(0)})
	requireKind(t, err, ErrValidation)

	second, err := env.svc.CreateProductGuide(ctx, env.admin, ProductGuideInput{
		ProductID:   f.product.ID.String(),
		StepNumber:  ptr(2),
		Description: ptr("أدخل الرمز"),
	})
	require.NoError(t, err)
	_, err = env.svc.CreateProductGuide(ctx, env.admin, ProductGuideInput{
		ProductID:   f.product.ID.String(),
		StepNumber:  ptr(1),
		SupportLink: ptr("https://wa.me/22222334455"),
	})
	require.NoError(t, err)

	guides, err := env.svc.ListProductGuides(ctx)
	require.NoError(t, err)
	require.Len(t, guides, 2)
	assert.Equal(t, 1, guides[0].StepNumber)
	assert.Equal(t, 2, guides[1].StepNumber)

	updated, err := env.svc.UpdateProductGuide(ctx, env.admin, ProductGuideInput{ID: second.ID.String(), StepNumber: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.StepNumber)

	require.NoError(t, env.svc.DeleteProductGuide(ctx, env.admin, second.ID.String()))
	assert.EqualValues(t, 1, countRows(t, env.db, &models.ProductGuide{}, ""))
}

func TestAdmin_UpdateSettingsUpserts(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	err := env.svc.UpdateSettings(ctx, env.admin, map[string]json.RawMessage{"payment_number": json.RawMessage(`{broken`)})
	requireKind(t, err, ErrValidation)

	require.NoError(t, env.svc.UpdateSettings(ctx, env.admin, map[string]json.RawMessage{
		"payment_number": json.RawMessage(`"41234567"`),
	}))
	require.NoError(t, env.svc.UpdateSettings(ctx, env.admin, map[string]json.RawMessage{
		"payment_number": json.RawMessage(`"49999999"`),
		"maintenance":    json.RawMessage(`true`),
	}))

	assert.EqualValues(t, 2, countRows(t, env.db, &models.Setting{}, ""))

	settings, err := env.catalog.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "49999999", settings["payment_number"])
	assert.Equal(t, true, settings["maintenance"])
	assert.Equal(t, "MauriGifts", settings["app_name"])
}

func TestAdmin_ListUsersWithOrderCounts(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	f := seedCatalog(t, env.db)
	customer := createUser(t, env.db, "22334455", models.RoleUser)

	for i := 0; i < 2; i++ {
		require.NoError(t, env.db.Create(&models.Order{
			UserID:        customer.ID,
			ProductID:     f.product.ID,
			PaymentMethod: models.PaymentBankily,
			PaymentNumber: "1",
			Status:        models.OrderUnderReview,
		}).Error)
	}

	users, total, err := env.svc.ListUsers(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)

	counts := map[string]int64{}
	for _, u := range users {
		counts[u.PhoneNumber] = u.OrderCount
	}
	assert.Equal(t, map[string]int64{"22334455": 2, "99887766": 0}, counts)

	page, total, err := env.svc.ListUsers(ctx, &utils.Pagination{Page: 2, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, page, 1)
}
