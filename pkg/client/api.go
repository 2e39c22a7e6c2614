package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// =============================================================================
// Auth
// =============================================================================

// Signup creates an account and keeps its session token.
func (c *Client) Signup(ctx context.Context, name, phone, pin string) (*SignupResult, error) {
	var res SignupResult
	err := c.post(ctx, "/api/auth/signup", map[string]string{
		"name":         name,
		"phone_number": phone,
		"pin":          pin,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// Login opens a session with phone and PIN.
func (c *Client) Login(ctx context.Context, phone, pin string) (*Session, error) {
	var res Session
	if err := c.post(ctx, "/api/auth/login", map[string]string{"phone_number": phone, "pin": pin}, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// RequestOTP asks the server to send a verification code over WhatsApp.
func (c *Client) RequestOTP(ctx context.Context, phone string) (*OTPRequestResult, error) {
	var res OTPRequestResult
	if err := c.post(ctx, "/api/auth/otp/request", map[string]string{"phone": phone}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyOTP exchanges a code for a session.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*OTPVerifyResult, error) {
	var res OTPVerifyResult
	if err := c.post(ctx, "/api/auth/otp/verify", map[string]string{"phone": phone, "code": code}, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var res struct {
		User *User `json:"user"`
	}
	if err := c.get(ctx, "/api/me", nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) ChangePIN(ctx context.Context, currentPIN, newPIN string) error {
	return c.post(ctx, "/api/me/pin", map[string]string{"current_pin": currentPIN, "new_pin": newPIN}, nil)
}

// SetPIN sets the first PIN of an account created by OTP verification.
func (c *Client) SetPIN(ctx context.Context, pin string) error {
	return c.post(ctx, "/api/me/pin/setup", map[string]string{"pin": pin}, nil)
}

// =============================================================================
// Catalog
// =============================================================================

// Products returns active products grouped by category name.
func (c *Client) Products(ctx context.Context) (map[string][]Product, error) {
	var res struct {
		Products map[string][]Product `json:"products"`
	}
	if err := c.get(ctx, "/api/products", nil, &res); err != nil {
		return nil, err
	}
	return res.Products, nil
}

// Categories returns categories with their product counts.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var res struct {
		Categories []Category `json:"categories"`
	}
	err := c.get(ctx, "/api/categories", nil, &res)
	return res.Categories, err
}

func (c *Client) CategoryNames(ctx context.Context) ([]Category, error) {
	var res struct {
		Categories []Category `json:"categories"`
	}
	err := c.get(ctx, "/api/categories/names", nil, &res)
	return res.Categories, err
}

func (c *Client) PaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var res struct {
		PaymentMethods []PaymentMethod `json:"payment_methods"`
	}
	err := c.get(ctx, "/api/payment-methods", nil, &res)
	return res.PaymentMethods, err
}

func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var res struct {
		Settings Settings `json:"settings"`
	}
	err := c.get(ctx, "/api/settings", nil, &res)
	return res.Settings, err
}

// ProductGuides returns redemption steps. Customers need a completed order for the product.
func (c *Client) ProductGuides(ctx context.Context, productID string) ([]ProductGuide, error) {
	var res struct {
		Guides []ProductGuide `json:"guides"`
	}
	err := c.get(ctx, "/api/products/"+url.PathEscape(productID)+"/guides", nil, &res)
	return res.Guides, err
}

// =============================================================================
// Orders
// =============================================================================

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var res struct {
		Order *Order `json:"order"`
	}
	if err := c.post(ctx, "/api/orders", req, &res); err != nil {
		return nil, err
	}
	return res.Order, nil
}

// UploadReceipt attaches a receipt image. ext is the file extension without the dot.
func (c *Client) UploadReceipt(ctx context.Context, orderID string, image []byte, ext string) (string, error) {
	var res struct {
		Path string `json:"path"`
	}
	err := c.post(ctx, "/api/orders/"+url.PathEscape(orderID)+"/receipt", map[string]string{
		"fileBase64": base64.StdEncoding.EncodeToString(image),
		"fileExt":    strings.TrimPrefix(ext, "."),
	}, &res)
	return res.Path, err
}

func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var res struct {
		Orders []Order `json:"orders"`
	}
	err := c.get(ctx, "/api/orders", nil, &res)
	return res.Orders, err
}

// Notifications lists the caller's notifications, marking them seen first when markSeen is set.
func (c *Client) Notifications(ctx context.Context, markSeen bool) (*Notifications, error) {
	var query url.Values
	if markSeen {
		query = url.Values{"mark_seen": {"true"}}
	}

	var res Notifications
	if err := c.get(ctx, "/api/notifications", query, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Receipt downloads the image behind a signed receipt_url. Only the token is taken from
// the link; the request goes to the configured base URL.
func (c *Client) Receipt(ctx context.Context, receiptURL string) ([]byte, string, error) {
	u, err := url.Parse(receiptURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse receipt url: %w", err)
	}
	token := path.Base(u.Path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/receipts/"+url.PathEscape(token), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// =============================================================================
// Admin
// =============================================================================

func pageQuery(page Page) url.Values {
	query := url.Values{}
	if page.Page > 0 {
		query.Set("page", strconv.Itoa(page.Page))
	}
	if page.Limit > 0 {
		query.Set("limit", strconv.Itoa(page.Limit))
	}
	return query
}

// AdminOrders lists orders, optionally filtered by status, and the total match count.
func (c *Client) AdminOrders(ctx context.Context, status string, page Page) ([]Order, int64, error) {
	query := pageQuery(page)
	if status != "" {
		query.Set("status", status)
	}

	var res struct {
		Orders []Order `json:"orders"`
		Total  int64   `json:"total"`
	}
	err := c.get(ctx, "/api/admin/orders", query, &res)
	return res.Orders, res.Total, err
}

func (c *Client) ApproveOrder(ctx context.Context, orderID, deliveryCode string) (*Order, error) {
	var res struct {
		Order *Order `json:"order"`
	}
	err := c.post(ctx, "/api/admin/orders/"+url.PathEscape(orderID)+"/approve",
		map[string]string{"delivery_code": deliveryCode}, &res)
	return res.Order, err
}

func (c *Client) RejectOrder(ctx context.Context, orderID, reason string) (*Order, error) {
	var res struct {
		Order *Order `json:"order"`
	}
	err := c.post(ctx, "/api/admin/orders/"+url.PathEscape(orderID)+"/reject",
		map[string]string{"reason": reason}, &res)
	return res.Order, err
}

func (c *Client) AdminUsers(ctx context.Context, page Page) ([]UserSummary, int64, error) {
	var res struct {
		Users []UserSummary `json:"users"`
		Total int64         `json:"total"`
	}
	err := c.get(ctx, "/api/admin/users", pageQuery(page), &res)
	return res.Users, res.Total, err
}

// Admin catalog endpoints take {"action": ..., <key>: payload}.
const (
	ActionList   = "list"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

func (c *Client) manage(ctx context.Context, route, action, key string, payload, out any) error {
	return c.post(ctx, route, map[string]any{"action": action, key: payload}, out)
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var res struct {
		Products []Product `json:"products"`
	}
	err := c.manage(ctx, "/api/admin/products", ActionList, "product", ProductInput{}, &res)
	return res.Products, err
}

// SaveProduct creates the product when in.ID is empty and updates it otherwise.
func (c *Client) SaveProduct(ctx context.Context, in ProductInput) (*Product, error) {
	action := ActionCreate
	if in.ID != "" {
		action = ActionUpdate
	}
	var res struct {
		Product *Product `json:"product"`
	}
	err := c.manage(ctx, "/api/admin/products", action, "product", in, &res)
	return res.Product, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.manage(ctx, "/api/admin/products", ActionDelete, "product", ProductInput{ID: id}, nil)
}

func (c *Client) ListAllCategories(ctx context.Context) ([]Category, error) {
	var res struct {
		Categories []Category `json:"categories"`
	}
	err := c.manage(ctx, "/api/admin/categories", ActionList, "category", CategoryInput{}, &res)
	return res.Categories, err
}

func (c *Client) SaveCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	action := ActionCreate
	if in.ID != "" {
		action = ActionUpdate
	}
	var res struct {
		Category *Category `json:"category"`
	}
	err := c.manage(ctx, "/api/admin/categories", action, "category", in, &res)
	return res.Category, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.manage(ctx, "/api/admin/categories", ActionDelete, "category", CategoryInput{ID: id}, nil)
}

func (c *Client) ListAllPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var res struct {
		PaymentMethods []PaymentMethod `json:"payment_methods"`
	}
	err := c.manage(ctx, "/api/admin/payment-methods", ActionList, "payment_method", PaymentMethodInput{}, &res)
	return res.PaymentMethods, err
}

func (c *Client) SavePaymentMethod(ctx context.Context, in PaymentMethodInput) (*PaymentMethod, error) {
	action := ActionCreate
	if in.ID != "" {
		action = ActionUpdate
	}
	var res struct {
		PaymentMethod *PaymentMethod `json:"payment_method"`
	}
	err := c.manage(ctx, "/api/admin/payment-methods", action, "payment_method", in, &res)
	return res.PaymentMethod, err
}

func (c *Client) DeletePaymentMethod(ctx context.Context, id string) error {
	return c.manage(ctx, "/api/admin/payment-methods", ActionDelete, "payment_method", PaymentMethodInput{ID: id}, nil)
}

func (c *Client) ListProductGuides(ctx context.Context) ([]ProductGuide, error) {
	var res struct {
		Guides []ProductGuide `json:"guides"`
	}
	err := c.manage(ctx, "/api/admin/product-guides", ActionList, "guide", ProductGuideInput{}, &res)
	return res.Guides, err
}

func (c *Client) SaveProductGuide(ctx context.Context, in ProductGuideInput) (*ProductGuide, error) {
	action := ActionCreate
	if in.ID != "" {
		action = ActionUpdate
	}
	var res struct {
		Guide *ProductGuide `json:"guide"`
	}
	err := c.manage(ctx, "/api/admin/product-guides", action, "guide", in, &res)
	return res.Guide, err
}

func (c *Client) DeleteProductGuide(ctx context.Context, id string) error {
	return c.manage(ctx, "/api/admin/product-guides", ActionDelete, "guide", ProductGuideInput{ID: id}, nil)
}

// AdminSettings returns the stored settings merged over the server defaults.
func (c *Client) AdminSettings(ctx context.Context) (Settings, error) {
	var res struct {
		Settings Settings `json:"settings"`
	}
	err := c.post(ctx, "/api/admin/settings", map[string]string{"action": "get"}, &res)
	return res.Settings, err
}

// UpdateSettings upserts the given keys.
func (c *Client) UpdateSettings(ctx context.Context, settings Settings) error {
	return c.post(ctx, "/api/admin/settings", map[string]any{"action": "update", "settings": settings}, nil)
}
