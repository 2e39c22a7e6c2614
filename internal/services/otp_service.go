package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/metrics"
	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/utils"
)

// OTPService issues and verifies one-time phone codes delivered over WhatsApp.
type OTPService struct {
	db          *gorm.DB
	auth        *AuthService
	relay       MessageRelay
	limiter     *utils.KeyedLimiter
	ttl         time.Duration
	countryCode string
	now         func() time.Time
}

type OTPConfig struct {
	TTL         time.Duration
	CountryCode string
	Limiter     *utils.KeyedLimiter
}

func NewOTPService(db *gorm.DB, auth *AuthService, relay MessageRelay, cfg OTPConfig) *OTPService {
	return &OTPService{
		db:          db,
		auth:        auth,
		relay:       relay,
		limiter:     cfg.Limiter,
		ttl:         cfg.TTL,
		countryCode: cfg.CountryCode,
		now:         time.Now,
	}
}

type OTPRequestResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	OTPStored    bool   `json:"otp_stored"`
	WhatsAppSent bool   `json:"whatsapp_sent"`
}

type OTPVerifyResult struct {
	AuthResult
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	PINRequired bool   `json:"pin_required"`
}

// Request stores a fresh code for the phone, replacing older ones, and relays it.
// A relay failure is reported in the result, not as an error.
func (s *OTPService) Request(ctx context.Context, rawPhone string) (*OTPRequestResult, error) {
	phone, ok := NormalizePhone(rawPhone)
	if !ok {
		return nil, newError(ErrValidation, msgInvalidPhone)
	}
	if !s.limiter.Allow(phone) {
		return nil, newError(ErrRateLimited, msgTooManyRequests)
	}

	code, err := generateOTP()
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone_number = ?", phone).Delete(&models.OTPCode{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.OTPCode{
			PhoneNumber: phone,
			CodeHash:    otpHash(phone, code),
			ExpiresAt:   s.now().Add(s.ttl),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	sent := s.deliver(ctx, phone, code)
	result := &OTPRequestResult{Success: true, OTPStored: true, WhatsAppSent: sent}
	if sent {
		result.Message = "✅ تم إرسال رمز التحقق بنجاح عبر واتساب."
	} else {
		result.Message = "⚠️ تم إنشاء رمز التحقق ولكن فشل إرساله عبر واتساب."
	}
	return result, nil
}

func (s *OTPService) deliver(ctx context.Context, phone, code string) bool {
	fields := logrus.Fields{"phone": maskPhone(phone)}

	err := s.relay.SendWhatsApp(ctx, s.countryCode+phone, fmt.Sprintf("Your MauriGifts verification code is %s", code))
	switch {
	case errors.Is(err, ErrRelayDisabled):
		metrics.RecordOTPDelivery("disabled")
		logrus.WithFields(fields).Warn("otp relay disabled; code stored but not sent")
		return false
	case err != nil:
		metrics.RecordOTPDelivery("failed")
		logrus.WithFields(fields).WithError(err).Error("otp relay failed")
		return false
	default:
		metrics.RecordOTPDelivery("sent")
		logrus.WithFields(fields).Info("otp sent")
		return true
	}
}

// Verify consumes the stored code for the phone. A wrong or expired code also consumes it.
// On success the account is provisioned if needed and a new session is opened.
func (s *OTPService) Verify(ctx context.Context, rawPhone, code string) (*OTPVerifyResult, error) {
	phone, ok := NormalizePhone(rawPhone)
	if !ok {
		return nil, newError(ErrValidation, msgInvalidPhone)
	}
	if !isDigits(code, 4, 6) {
		return nil, newError(ErrValidation, msgOTPFormat)
	}

	db := s.db.WithContext(ctx)

	var otp models.OTPCode
	if err := db.Where("phone_number = ?", phone).Order("created_at desc").First(&otp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrValidation, msgInvalidOTP)
		}
		return nil, err
	}

	// Only the caller that deletes the row may use it.
	res := db.Where("id = ?", otp.ID).Delete(&models.OTPCode{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrValidation, msgInvalidOTP)
	}

	if !s.now().Before(otp.ExpiresAt) || otp.CodeHash != otpHash(phone, code) {
		return nil, newError(ErrValidation, msgInvalidOTP)
	}

	result := &OTPVerifyResult{Success: true, Message: "✅ تم التحقق بنجاح"}
	err := db.Transaction(func(tx *gorm.DB) error {
		user := models.User{}
		err := tx.Where(models.User{PhoneNumber: phone}).
			Attrs(models.User{Name: "User " + phone, Role: models.RoleUser}).
			FirstOrCreate(&user).Error
		if err != nil {
			return err
		}

		token, expiresAt, err := s.auth.issueSession(tx, user.ID)
		if err != nil {
			return err
		}
		result.User = &user
		result.Token = token
		result.ExpiresAt = expiresAt
		result.PINRequired = !user.PinSet
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func otpHash(phone, code string) string {
	return utils.SHA256Hex(phone + ":" + code)
}
