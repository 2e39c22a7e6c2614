package services

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrRateLimited        = errors.New("rate limited")
	ErrUpstream           = errors.New("upstream failure")
)

// Error carries a user-facing message alongside one of the sentinel kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// User-facing messages.
const (
	msgInvalidSession     = "جلسة غير صالحة"
	msgNotAuthorized      = "غير مصرح لك بالوصول"
	msgInvalidCredentials = "رقم الهاتف أو الرمز غير صحيح"
	msgPhoneTaken         = "رقم الهاتف مستخدم بالفعل"
	msgInvalidName        = "الاسم مطلوب ويجب ألا يتجاوز 100 حرف"
	msgInvalidPhone       = "رقم الهاتف يجب أن يتكون من 8 أرقام"
	msgInvalidPIN         = "الرمز السري يجب أن يتكون من 4 أرقام"
	msgWrongCurrentPIN    = "الرمز السري الحالي غير صحيح"
	msgPINNotSet          = "لم يتم تعيين الرمز السري بعد"
	msgPINAlreadySet      = "تم تعيين الرمز السري مسبقاً"
	msgInvalidOTP         = "❌ الرمز غير صالح أو منتهي الصلاحية."
	msgOTPFormat          = "رمز التحقق يجب أن يتكون من 4 إلى 6 أرقام"
	msgTooManyRequests    = "طلبات كثيرة، يرجى المحاولة لاحقاً"
	msgProductUnavailable = "المنتج غير متوفر"
	msgInvalidPayment     = "طريقة الدفع غير صالحة"
	msgPaymentNumber      = "رقم الدفع مطلوب"
	msgInvalidID          = "المعرف غير صالح"
	msgOrderNotFound      = "الطلب غير موجود"
	msgOrderClosed        = "لا يمكن تعديل طلب مكتمل أو مرفوض"
	msgOrderNotInReview   = "الطلب ليس قيد المراجعة"
	msgDeliveryCode       = "رمز التسليم مطلوب"
	msgRejectReason       = "سبب الرفض مطلوب ويجب ألا يتجاوز 500 حرف"
	msgInvalidFileType    = "نوع الملف غير مدعوم"
	msgInvalidFile        = "ملف الإيصال غير صالح"
	msgFileTooLarge       = "حجم الملف كبير جداً"
	msgStorageFailed      = "تعذر حفظ الإيصال، حاول لاحقاً"
	msgReceiptNotFound    = "الإيصال غير موجود"
	msgGuideLocked        = "يجب شراء المنتج أولاً للوصول إلى الدليل"
	msgInvalidStatus      = "حالة الطلب غير صالحة"
)

// RateLimitedError is returned by throttles outside this package.
func RateLimitedError() error {
	return newError(ErrRateLimited, msgTooManyRequests)
}
