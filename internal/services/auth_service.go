package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/utils"
)

// AuthService owns accounts, PINs and bearer sessions.
type AuthService struct {
	db         *gorm.DB
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthService(db *gorm.DB, sessionTTL time.Duration) *AuthService {
	return &AuthService{db: db, sessionTTL: sessionTTL, now: time.Now}
}

// AuthResult is returned by every operation that mints a session.
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Signup creates an account with a PIN and opens its first session.
func (s *AuthService) Signup(ctx context.Context, name, phone, pin string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if !textLength(name, 1, 100) {
		return nil, newError(ErrValidation, msgInvalidName)
	}
	if !validPhone(phone) {
		return nil, newError(ErrValidation, msgInvalidPhone)
	}
	if !validPIN(pin) {
		return nil, newError(ErrValidation, msgInvalidPIN)
	}

	pinHash, err := utils.HashPIN(pin)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:        name,
		PhoneNumber: phone,
		PinHash:     pinHash,
		PinSet:      true,
		Role:        models.RoleUser,
	}

	var result *AuthResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("phone_number = ?", phone).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return newError(ErrConflict, msgPhoneTaken)
		}

		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(ErrConflict, msgPhoneTaken)
			}
			return err
		}

		token, expiresAt, err := s.issueSession(tx, user.ID)
		if err != nil {
			return err
		}
		result = &AuthResult{User: &user, Token: token, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"phone":   maskPhone(phone),
	}).Info("user signed up")
	return result, nil
}

// Login checks phone and PIN and opens a new session.
func (s *AuthService) Login(ctx context.Context, phone, pin string) (*AuthResult, error) {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) || !validPIN(pin) {
		return nil, newError(ErrValidation, msgInvalidCredentials)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("phone_number = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, msgInvalidCredentials)
		}
		return nil, err
	}

	// Accounts provisioned through OTP have no PIN until SetPIN is called.
	if !user.PinSet || !utils.CheckPIN(user.PinHash, pin) {
		return nil, newError(ErrUnauthorized, msgInvalidCredentials)
	}

	token, expiresAt, err := s.issueSession(s.db.WithContext(ctx), user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: &user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token to its user. Unknown and expired tokens fail the same way.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(ErrUnauthorized, msgInvalidSession)
	}

	var session models.Session
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ? AND expires_at > ?", utils.SHA256Hex(token), s.now()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, msgInvalidSession)
		}
		return nil, err
	}
	if session.User == nil {
		return nil, newError(ErrUnauthorized, msgInvalidSession)
	}

	return session.User, nil
}

// RequireAdmin fails with the generic "not authorized" message for non-admins.
func RequireAdmin(user *models.User) error {
	if !user.IsAdmin() {
		return newError(ErrForbidden, msgNotAuthorized)
	}
	return nil
}

// ChangePIN replaces the PIN after verifying the current one.
func (s *AuthService) ChangePIN(ctx context.Context, userID uuid.UUID, currentPIN, newPIN string) error {
	if !validPIN(currentPIN) || !validPIN(newPIN) {
		return newError(ErrValidation, msgInvalidPIN)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrUnauthorized, msgInvalidSession)
		}
		return err
	}

	if !user.PinSet {
		return newError(ErrConflict, msgPINNotSet)
	}
	if !utils.CheckPIN(user.PinHash, currentPIN) {
		return newError(ErrValidation, msgWrongCurrentPIN)
	}

	pinHash, err := utils.HashPIN(newPIN)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("pin_hash", pinHash).Error
}

// SetPIN sets the first PIN of an account created through OTP verification.
func (s *AuthService) SetPIN(ctx context.Context, userID uuid.UUID, pin string) error {
	if !validPIN(pin) {
		return newError(ErrValidation, msgInvalidPIN)
	}

	pinHash, err := utils.HashPIN(pin)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND pin_set = ?", userID, false).
		Updates(map[string]any{"pin_hash": pinHash, "pin_set": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newError(ErrConflict, msgPINAlreadySet)
	}
	return nil
}

func (s *AuthService) issueSession(tx *gorm.DB, userID uuid.UUID) (string, time.Time, error) {
	token, err := utils.NewToken()
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := s.now().Add(s.sessionTTL)
	session := models.Session{
		TokenHash: utils.SHA256Hex(token),
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	if err := tx.Create(&session).Error; err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// EnsureAdmin creates the admin account for phone, or promotes the existing user and resets its PIN.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, phone, pin string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) {
		return nil, newError(ErrValidation, msgInvalidPhone)
	}
	if !validPIN(pin) {
		return nil, newError(ErrValidation, msgInvalidPIN)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = "Admin"
	}

	pinHash, err := utils.HashPIN(pin)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(models.User{PhoneNumber: phone}).
			Attrs(models.User{Name: name}).
			FirstOrCreate(&user).Error
		if err != nil {
			return err
		}
		return tx.Model(&user).Updates(map[string]any{
			"role":     models.RoleAdmin,
			"pin_hash": pinHash,
			"pin_set":  true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
