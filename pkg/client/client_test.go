package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/maurigift/internal/database"
	"github.com/example/maurigift/internal/routes"
	"github.com/example/maurigift/internal/services"
	"github.com/example/maurigift/internal/storage"
	"github.com/example/maurigift/pkg/client"
)

var pngReceipt = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type fixture struct {
	srv  *httptest.Server
	auth *services.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	receipts, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{auth: services.NewAuthService(db, time.Hour)}
	catalog := services.NewCatalogService(db, nil, 0, services.SettingsDefaults{PaymentNumber: "41791082", AppName: "MauriGift"})

	deps := routes.Deps{
		DB:   db,
		Auth: f.auth,
		OTP: services.NewOTPService(db, f.auth, services.NewWhatsAppService(services.WhatsAppConfig{}), services.OTPConfig{
			TTL:         5 * time.Minute,
			CountryCode: "+222",
		}),
		Notifications: services.NewNotificationService(db),
		Catalog:       catalog,
		Admin:         services.NewAdminService(db, catalog),
		Version:       "test",
	}

	// Receipt links point at the test server, which only exists once the app is built.
	var app http.Handler
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)

	deps.Orders = services.NewOrderService(db, services.OrderServiceConfig{
		Store:           receipts,
		Linker:          services.ReceiptLinker{Secret: "test-secret", TTL: time.Hour, BaseURL: f.srv.URL},
		MaxReceiptBytes: 1 << 20,
	})
	app = adaptor.FiberApp(routes.NewApp(deps, routes.AppOptions{Name: "maurigift-test", RequestTimeout: 5 * time.Second}))

	return f
}

func (f *fixture) client() *client.Client {
	return client.New(client.Config{BaseURL: f.srv.URL, Timeout: 5 * time.Second})
}

func strPtr(v string) *string { return &v }

func TestClient_PurchaseFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.EnsureAdmin(ctx, "Admin", "99887766", "4321")
	require.NoError(t, err)

	admin := f.client()
	_, err = admin.Login(ctx, "99887766", "4321")
	require.NoError(t, err)

	category, err := admin.SaveCategory(ctx, client.CategoryInput{Name: strPtr("PUBG")})
	require.NoError(t, err)
	price := 120.0
	product, err := admin.SaveProduct(ctx, client.ProductInput{
		CategoryID: category.ID,
		Name:       strPtr("60 UC"),
		SKU:        strPtr("PUBG-60"),
		PriceMRU:   &price,
	})
	require.NoError(t, err)
	require.NoError(t, admin.UpdateSettings(ctx, client.Settings{"payment_number": []byte(`"49999999"`)}))

	customer := f.client()
	signup, err := customer.Signup(ctx, "Sidi", "22334455", "1234")
	require.NoError(t, err)
	assert.Equal(t, signup.Token, customer.Token())

	store := client.NewStore(customer)
	require.NoError(t, store.Load(ctx))
	assert.Equal(t, "22334455", store.User().PhoneNumber)
	catalog := store.Catalog()
	require.Len(t, catalog.Products["PUBG"], 1)
	assert.Equal(t, "49999999", catalog.Settings.String("payment_number"))

	order, err := customer.CreateOrder(ctx, client.CreateOrderRequest{
		ProductID:     product.ID,
		PaymentMethod: "bankily",
		PaymentNumber: "22334455",
	})
	require.NoError(t, err)
	assert.Equal(t, client.StatusUnderReview, order.Status)

	_, err = customer.UploadReceipt(ctx, order.ID, pngReceipt, ".png")
	require.NoError(t, err)

	assert.Empty(t, store.Orders())
	require.NoError(t, store.RefreshOrders(ctx))
	require.NoError(t, store.RefreshNotifications(ctx, false))
	require.Len(t, store.Orders(), 1)
	assert.EqualValues(t, 1, store.Notifications().UnreadCount)

	receiptURL := store.Orders()[0].ReceiptURL
	require.NotEmpty(t, receiptURL)
	data, contentType, err := customer.Receipt(ctx, receiptURL)
	require.NoError(t, err)
	assert.Equal(t, pngReceipt, data)
	assert.Equal(t, "image/png", contentType)

	pending, total, err := admin.AdminOrders(ctx, client.StatusUnderReview, client.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)

	approved, err := admin.ApproveOrder(ctx, order.ID, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, client.StatusCompleted, approved.Status)

	_, err = admin.RejectOrder(ctx, order.ID, "too late")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)

	require.NoError(t, store.RefreshOrders(ctx))
	require.NoError(t, store.RefreshNotifications(ctx, true))
	orders := store.Orders()
	require.NotNil(t, orders[0].DeliveryCode)
	assert.Equal(t, "ABC123", *orders[0].DeliveryCode)
	assert.EqualValues(t, 0, store.Notifications().UnreadCount)
	assert.Len(t, store.Notifications().Notifications, 2)

	guides, err := customer.ProductGuides(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, guides)

	users, total, err := admin.AdminUsers(ctx, client.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)
}

func TestStore_ReadersGetCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.client()
	_, err := customer.Signup(ctx, "Sidi", "22334455", "1234")
	require.NoError(t, err)

	store := client.NewStore(customer)
	require.NoError(t, store.RefreshUser(ctx))

	u := store.User()
	u.Name = "changed"
	assert.Equal(t, "Sidi", store.User().Name)

	store.Reset()
	assert.Nil(t, store.User())
}

func TestStore_FailedRefreshKeepsPreviousValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.client()
	_, err := customer.Signup(ctx, "Sidi", "22334455", "1234")
	require.NoError(t, err)

	store := client.NewStore(customer)
	require.NoError(t, store.RefreshUser(ctx))

	customer.SetToken("expired")
	err = store.RefreshUser(ctx)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "22334455", store.User().PhoneNumber)
}

func TestClient_PINFlows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.client()
	_, err := c.Signup(ctx, "Sidi", "22334455", "1234")
	require.NoError(t, err)

	require.NoError(t, c.ChangePIN(ctx, "1234", "5678"))

	_, err = c.Login(ctx, "22334455", "1234")
	require.Error(t, err)
	_, err = c.Login(ctx, "22334455", "5678")
	require.NoError(t, err)

	res, err := c.RequestOTP(ctx, "+22222334455")
	require.NoError(t, err)
	assert.True(t, res.OTPStored)
	assert.False(t, res.WhatsAppSent)
}

func TestClient_AdminCatalogManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.EnsureAdmin(ctx, "Admin", "99887766", "4321")
	require.NoError(t, err)
	admin := f.client()
	_, err = admin.Login(ctx, "99887766", "4321")
	require.NoError(t, err)

	method, err := admin.SavePaymentMethod(ctx, client.PaymentMethodInput{Name: strPtr("Bankily")})
	require.NoError(t, err)
	_, err = admin.SavePaymentMethod(ctx, client.PaymentMethodInput{ID: method.ID, Status: strPtr("inactive")})
	require.NoError(t, err)

	all, err := admin.ListAllPaymentMethods(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	public, err := admin.PaymentMethods(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)
	require.NoError(t, admin.DeletePaymentMethod(ctx, method.ID))

	category, err := admin.SaveCategory(ctx, client.CategoryInput{Name: strPtr("Free Fire")})
	require.NoError(t, err)
	price := 80.0
	product, err := admin.SaveProduct(ctx, client.ProductInput{
		CategoryID: category.ID,
		Name:       strPtr("100 Diamonds"),
		SKU:        strPtr("FF-100"),
		PriceMRU:   &price,
	})
	require.NoError(t, err)

	step := 1
	guide, err := admin.SaveProductGuide(ctx, client.ProductGuideInput{ProductID: product.ID, StepNumber: &step, Description: strPtr("افتح اللعبة")})
	require.NoError(t, err)
	guides, err := admin.ProductGuides(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, guides, 1)
	listed, err := admin.ListProductGuides(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	require.NoError(t, admin.DeleteProductGuide(ctx, guide.ID))

	err = admin.DeleteCategory(ctx, category.ID)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	products, err := admin.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NoError(t, admin.DeleteProduct(ctx, product.ID))
	require.NoError(t, admin.DeleteCategory(ctx, category.ID))

	categories, err := admin.ListAllCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)

	settings, err := admin.AdminSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "41791082", settings.String("payment_number"))
}
