package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/maurigift/internal/events"
	"github.com/example/maurigift/internal/metrics"
	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/storage"
	"github.com/example/maurigift/internal/utils"
)

var receiptContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// ReceiptAlerter is told about every accepted receipt.
type ReceiptAlerter interface {
	NotifyReceiptUploaded(ctx context.Context, n ReceiptNotification) error
}

// ReceiptLinker turns stored receipt paths into expiring public links.
type ReceiptLinker struct {
	Secret  string
	TTL     time.Duration
	BaseURL string
}

func (l ReceiptLinker) Link(path string) string {
	token, err := utils.SignReceiptPath(l.Secret, path, l.TTL)
	if err != nil {
		logrus.WithError(err).Warn("failed to sign receipt link")
		return ""
	}
	return l.BaseURL + "/api/receipts/" + token
}

// OrderService runs the order lifecycle. Every transition updates the order, emits the
// owner notification and writes the audit row in one transaction.
type OrderService struct {
	db              *gorm.DB
	store           storage.ReceiptStore
	publisher       events.Publisher
	alerter         ReceiptAlerter
	linker          ReceiptLinker
	maxReceiptBytes int
	now             func() time.Time
}

type OrderServiceConfig struct {
	Store           storage.ReceiptStore
	Publisher       events.Publisher
	Alerter         ReceiptAlerter
	Linker          ReceiptLinker
	MaxReceiptBytes int
}

func NewOrderService(db *gorm.DB, cfg OrderServiceConfig) *OrderService {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &OrderService{
		db:              db,
		store:           cfg.Store,
		publisher:       publisher,
		alerter:         cfg.Alerter,
		linker:          cfg.Linker,
		maxReceiptBytes: cfg.MaxReceiptBytes,
		now:             time.Now,
	}
}

type CreateOrderInput struct {
	ProductID     string `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
	PaymentNumber string `json:"payment_number"`
}

// Create places an order for an active product. It starts in under_review.
func (s *OrderService) Create(ctx context.Context, user *models.User, in CreateOrderInput) (*models.Order, error) {
	productID, err := parseID(in.ProductID)
	if err != nil {
		return nil, err
	}
	method, ok := models.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, newError(ErrValidation, msgInvalidPayment)
	}
	number := strings.TrimSpace(in.PaymentNumber)
	if !textLength(number, 1, 64) {
		return nil, newError(ErrValidation, msgPaymentNumber)
	}

	order := models.Order{
		UserID:        user.ID,
		ProductID:     productID,
		PaymentMethod: method,
		PaymentNumber: number,
		Status:        models.OrderUnderReview,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ? AND active = ?", productID, true).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrProductUnavailable, msgProductUnavailable)
			}
			return err
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		order.Product = &product

		return recordAudit(tx, user.ID, "create_order", "order", order.ID.String(), map[string]any{
			"product_id":     productID.String(),
			"payment_method": string(method),
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, events.OrderCreated, &order, "", user.ID)
	return &order, nil
}

type ReceiptInput struct {
	FileBase64 string `json:"fileBase64"`
	FileExt    string `json:"fileExt"`
}

// AttachReceipt stores a payment receipt image for one of the caller's open orders.
func (s *OrderService) AttachReceipt(ctx context.Context, user *models.User, orderID string, in ReceiptInput) (string, error) {
	id, err := parseID(orderID)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(in.FileExt), "."))
	contentType, ok := receiptContentTypes[ext]
	if !ok {
		return "", newError(ErrValidation, msgInvalidFileType)
	}

	data, err := s.decodeReceipt(in.FileBase64)
	if err != nil {
		return "", err
	}

	db := s.db.WithContext(ctx)

	var current models.Order
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", newError(ErrNotFound, msgOrderNotFound)
		}
		return "", err
	}
	if !CanTransition(current.Status, models.OrderUnderReview, ActorCustomer) {
		return "", transitionError(current.Status)
	}

	path := fmt.Sprintf("%s/%d.%s", current.ID, s.now().UnixMilli(), ext)
	if err := s.store.Put(ctx, path, data, contentType); err != nil {
		logrus.WithFields(logrus.Fields{"order_id": current.ID, "path": path}).WithError(err).Error("receipt upload failed")
		return "", newError(ErrUpstream, msgStorageFailed)
	}

	var order models.Order
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", id, user.ID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, msgOrderNotFound)
			}
			return err
		}
		if !CanTransition(order.Status, models.OrderUnderReview, ActorCustomer) {
			return transitionError(order.Status)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(map[string]any{"receipt_path": path, "status": models.OrderUnderReview})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transitionError(order.Status)
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", order.ProductID).Error; err != nil {
			return err
		}
		order.Product = &product

		body := fmt.Sprintf("تم استلام إيصال الدفع لطلب %s وهو الآن قيد المراجعة.", product.Name)
		if err := emitNotification(tx, order.UserID, "تم إرسال الطلب بنجاح", body, models.NotificationPayload{
			Kind:    models.NotificationReceiptReceived,
			OrderID: &order.ID,
		}); err != nil {
			return err
		}

		return recordAudit(tx, user.ID, "upload_receipt", "order", order.ID.String(), map[string]any{
			"path": path,
		})
	})
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			logrus.WithField("path", path).WithError(delErr).Warn("failed to remove orphaned receipt")
		}
		return "", err
	}

	from := order.Status
	order.Status = models.OrderUnderReview
	order.ReceiptPath = &path
	s.afterTransition(ctx, events.OrderReceiptAttached, &order, from, user.ID)
	s.alertAdmins(user, &order)
	return path, nil
}

func (s *OrderService) decodeReceipt(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	if encoded == "" {
		return nil, newError(ErrValidation, msgInvalidFile)
	}
	if s.maxReceiptBytes > 0 && base64.StdEncoding.DecodedLen(len(encoded)) > s.maxReceiptBytes+3 {
		return nil, newError(ErrValidation, msgFileTooLarge)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, newError(ErrValidation, msgInvalidFile)
		}
	}
	if len(data) == 0 {
		return nil, newError(ErrValidation, msgInvalidFile)
	}
	if s.maxReceiptBytes > 0 && len(data) > s.maxReceiptBytes {
		return nil, newError(ErrValidation, msgFileTooLarge)
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, newError(ErrValidation, msgInvalidFileType)
	}
	return data, nil
}

// Approve completes an order under review and hands the delivery code to its owner.
func (s *OrderService) Approve(ctx context.Context, admin *models.User, orderID, deliveryCode string) (*models.Order, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	deliveryCode = strings.TrimSpace(deliveryCode)
	if !textLength(deliveryCode, 1, 500) {
		return nil, newError(ErrValidation, msgDeliveryCode)
	}

	order, from, err := s.review(ctx, admin, id, models.OrderCompleted, func(tx *gorm.DB, order *models.Order) error {
		body := fmt.Sprintf("تم إكمال طلب %s. رمز التسليم: %s", productName(order), deliveryCode)
		if err := emitNotification(tx, order.UserID, "تم إكمال طلبك", body, models.NotificationPayload{
			Kind:         models.NotificationOrderCompleted,
			OrderID:      &order.ID,
			DeliveryCode: deliveryCode,
		}); err != nil {
			return err
		}
		return recordAudit(tx, admin.ID, "approve_order", "order", order.ID.String(), map[string]any{
			"delivery_code": deliveryCode,
		})
	}, map[string]any{"delivery_code": deliveryCode})
	if err != nil {
		return nil, err
	}

	order.DeliveryCode = &deliveryCode
	s.afterTransition(ctx, events.OrderCompleted, order, from, admin.ID)
	return order, nil
}

// Reject closes an open order and tells its owner why.
func (s *OrderService) Reject(ctx context.Context, admin *models.User, orderID, reason string) (*models.Order, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if !textLength(reason, 1, 500) {
		return nil, newError(ErrValidation, msgRejectReason)
	}

	order, from, err := s.review(ctx, admin, id, models.OrderRejected, func(tx *gorm.DB, order *models.Order) error {
		body := fmt.Sprintf("تم رفض طلب %s. السبب: %s", productName(order), reason)
		if err := emitNotification(tx, order.UserID, "تم رفض طلبك", body, models.NotificationPayload{
			Kind:    models.NotificationOrderRejected,
			OrderID: &order.ID,
			Reason:  reason,
		}); err != nil {
			return err
		}
		return recordAudit(tx, admin.ID, "reject_order", "order", order.ID.String(), map[string]any{
			"reason": reason,
		})
	}, map[string]any{"admin_note": reason})
	if err != nil {
		return nil, err
	}

	order.AdminNote = &reason
	s.afterTransition(ctx, events.OrderRejected, order, from, admin.ID)
	return order, nil
}

// review locks the order, checks the transition, applies updates and runs the side effects.
func (s *OrderService) review(
	ctx context.Context,
	admin *models.User,
	id uuid.UUID,
	to models.OrderStatus,
	sideEffects func(tx *gorm.DB, order *models.Order) error,
	updates map[string]any,
) (*models.Order, models.OrderStatus, error) {
	var order models.Order
	var from models.OrderStatus
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, msgOrderNotFound)
			}
			return err
		}
		from = order.Status
		if !CanTransition(from, to, ActorAdmin) {
			return transitionError(from)
		}

		updates["status"] = to
		updates["reviewed_by"] = admin.ID
		updates["reviewed_at"] = now
		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transitionError(from)
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", order.ProductID).Error; err != nil {
			return err
		}
		order.Product = &product
		order.Status = to
		order.ReviewedBy = &admin.ID
		order.ReviewedAt = &now

		return sideEffects(tx, &order)
	})
	if err != nil {
		return nil, "", err
	}
	return &order, from, nil
}

// ListForUser returns the caller's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Category").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	s.attachReceiptLinks(orders)
	return orders, nil
}

// ListForAdmin returns orders, optionally filtered by status, with owner and product joined.
func (s *OrderService) ListForAdmin(ctx context.Context, status string, page *utils.Pagination) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if status = strings.TrimSpace(status); status != "" {
		parsed, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, 0, newError(ErrValidation, msgInvalidStatus)
		}
		query = query.Where("status = ?", parsed)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Preload("User").
		Preload("Product").
		Preload("Product.Category").
		Order("created_at desc")
	if page != nil {
		query = query.Offset(page.Offset).Limit(page.Limit)
	}

	orders := make([]models.Order, 0)
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	s.attachReceiptLinks(orders)
	return orders, total, nil
}

// OpenReceipt resolves a signed receipt link to the stored image.
func (s *OrderService) OpenReceipt(ctx context.Context, token string) ([]byte, string, error) {
	path, err := utils.ParseReceiptToken(s.linker.Secret, token)
	if err != nil {
		return nil, "", newError(ErrNotFound, msgReceiptNotFound)
	}

	data, contentType, err := s.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", newError(ErrNotFound, msgReceiptNotFound)
		}
		return nil, "", err
	}
	return data, contentType, nil
}

func (s *OrderService) attachReceiptLinks(orders []models.Order) {
	if s.linker.Secret == "" {
		return
	}
	for i := range orders {
		if orders[i].ReceiptPath != nil && *orders[i].ReceiptPath != "" {
			orders[i].ReceiptURL = s.linker.Link(*orders[i].ReceiptPath)
		}
	}
}

func (s *OrderService) afterTransition(ctx context.Context, eventType string, order *models.Order, from models.OrderStatus, actorID uuid.UUID) {
	metrics.RecordOrderTransition(string(from), string(order.Status))

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"actor_id": actorID,
		"from":     from,
		"to":       order.Status,
	}).Info("order transition")

	event := events.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		ProductID:  order.ProductID,
		Status:     string(order.Status),
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		logrus.WithField("order_id", order.ID).WithError(err).Warn("failed to publish order event")
	}
}

func (s *OrderService) alertAdmins(user *models.User, order *models.Order) {
	if s.alerter == nil {
		return
	}

	n := ReceiptNotification{
		OrderID:       order.ID.String(),
		ProductName:   productName(order),
		UserName:      user.Name,
		UserPhone:     user.PhoneNumber,
		PaymentMethod: order.PaymentMethod.DisplayName(),
		PaymentNumber: order.PaymentNumber,
	}
	if order.Product != nil {
		n.PriceMRU = order.Product.PriceMRU
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.alerter.NotifyReceiptUploaded(ctx, n); err != nil {
			logrus.WithField("order_id", n.OrderID).WithError(err).Warn("telegram receipt alert failed")
		}
	}()
}

func productName(order *models.Order) string {
	if order.Product == nil {
		return ""
	}
	if order.Product.Name != "" {
		return order.Product.Name
	}
	return order.Product.Meta.Label()
}
