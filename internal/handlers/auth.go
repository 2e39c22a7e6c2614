package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/maurigift/internal/middleware"
	"github.com/example/maurigift/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
	otp  *services.OTPService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, otp *services.OTPService) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp}
}

type signupRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	PIN         string `json:"pin"`
}

// Signup creates an account, opens a session and sends a verification code.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.auth.Signup(c.UserContext(), req.Name, req.PhoneNumber, req.PIN)
	if err != nil {
		return err
	}

	otpSent := false
	if otp, err := h.otp.Request(c.UserContext(), req.PhoneNumber); err != nil {
		logrus.WithField("user_id", res.User.ID).WithError(err).Warn("failed to send otp after signup")
	} else {
		otpSent = otp.WhatsAppSent
	}

	message := "✅ تم إنشاء الحساب بنجاح."
	if otpSent {
		message = "✅ تم إنشاء الحساب بنجاح، وتم إرسال رمز التحقق عبر واتساب."
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message":    message,
		"user":       res.User,
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"otp_sent":   otpSent,
	})
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	PIN         string `json:"pin"`
}

// Login authenticates an existing user by phone and PIN.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.auth.Login(c.UserContext(), req.PhoneNumber, req.PIN)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

type otpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// RequestOTP sends a fresh verification code over WhatsApp.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.otp.Request(c.UserContext(), req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// VerifyOTP exchanges a valid code for a session.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.otp.Verify(c.UserContext(), req.Phone, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Me returns the current user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	return c.JSON(fiber.Map{"user": user})
}

type changePINRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

// ChangePIN replaces the caller's PIN.
func (h *AuthHandler) ChangePIN(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	var req changePINRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.auth.ChangePIN(c.UserContext(), user.ID, req.CurrentPIN, req.NewPIN); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

type setPINRequest struct {
	PIN string `json:"pin"`
}

// SetPIN sets the first PIN of an OTP-provisioned account.
func (h *AuthHandler) SetPIN(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	var req setPINRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.auth.SetPIN(c.UserContext(), user.ID, req.PIN); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
