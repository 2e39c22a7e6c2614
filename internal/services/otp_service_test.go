package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/utils"
)

func newOTPService(t *testing.T, db *gorm.DB, relay MessageRelay, limiter *utils.KeyedLimiter) *OTPService {
	t.Helper()

	auth := NewAuthService(db, time.Hour)
	return NewOTPService(db, auth, relay, OTPConfig{TTL: 5 * time.Minute, CountryCode: "+222", Limiter: limiter})
}

func TestOTP_RequestAndVerifyProvisionsAccount(t *testing.T) {
	db := newTestDB(t)
	relay := &fakeRelay{}
	svc := newOTPService(t, db, relay, nil)
	ctx := context.Background()

	req, err := svc.Request(ctx, "+222 2233-4455")
	require.NoError(t, err)
	assert.True(t, req.Success)
	assert.True(t, req.OTPStored)
	assert.True(t, req.WhatsAppSent)

	code := relay.lastCode(t, "+22222334455")
	assert.Len(t, code, 6)

	var stored models.OTPCode
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "22334455", stored.PhoneNumber)
	assert.NotEqual(t, code, stored.CodeHash)

	res, err := svc.Verify(ctx, "22334455", code)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.PINRequired)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "22334455", res.User.PhoneNumber)
	assert.False(t, res.User.PinSet)

	assert.EqualValues(t, 0, countRows(t, db, &models.OTPCode{}, ""))
	assert.EqualValues(t, 1, countRows(t, db, &models.User{}, ""))

	_, err = svc.Verify(ctx, "22334455", code)
	requireKind(t, err, ErrValidation)
}

func TestOTP_VerifyExistingUserKeepsPIN(t *testing.T) {
	db := newTestDB(t)
	relay := &fakeRelay{}
	svc := newOTPService(t, db, relay, nil)
	ctx := context.Background()

	existing := createUser(t, db, "22334455", models.RoleUser)

	_, err := svc.Request(ctx, "22334455")
	require.NoError(t, err)

	res, err := svc.Verify(ctx, "22334455", relay.lastCode(t, "+22222334455"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.User.ID)
	assert.False(t, res.PINRequired)
	assert.EqualValues(t, 1, countRows(t, db, &models.User{}, ""))
}

func TestOTP_WrongCodeConsumesIt(t *testing.T) {
	db := newTestDB(t)
	relay := &fakeRelay{}
	svc := newOTPService(t, db, relay, nil)
	ctx := context.Background()

	_, err := svc.Request(ctx, "22334455")
	require.NoError(t, err)
	code := relay.lastCode(t, "+22222334455")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = svc.Verify(ctx, "22334455", wrong)
	requireKind(t, err, ErrValidation)
	assert.Equal(t, msgInvalidOTP, err.Error())

	_, err = svc.Verify(ctx, "22334455", code)
	requireKind(t, err, ErrValidation)
	assert.EqualValues(t, 0, countRows(t, db, &models.User{}, ""))
}

func TestOTP_ExpiredCode(t *testing.T) {
	db := newTestDB(t)
	relay := &fakeRelay{}
	svc := newOTPService(t, db, relay, nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	_, err := svc.Request(ctx, "22334455")
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(10 * time.Minute) }
	_, err = svc.Verify(ctx, "22334455", relay.lastCode(t, "+22222334455"))
	requireKind(t, err, ErrValidation)
}

func TestOTP_NewRequestReplacesOldCode(t *testing.T) {
	db := newTestDB(t)
	relay := &fakeRelay{}
	svc := newOTPService(t, db, relay, nil)
	ctx := context.Background()

	_, err := svc.Request(ctx, "22334455")
	require.NoError(t, err)
	_, err = svc.Request(ctx, "22334455")
	require.NoError(t, err)

	assert.EqualValues(t, 1, countRows(t, db, &models.OTPCode{}, "phone_number = ?", "22334455"))
}

func TestOTP_RelayFailureStillStoresCode(t *testing.T) {
	db := newTestDB(t)
	svc := newOTPService(t, db, &fakeRelay{err: errors.New("twilio down")}, nil)

	res, err := svc.Request(context.Background(), "22334455")
	require.NoError(t, err)
	assert.True(t, res.OTPStored)
	assert.False(t, res.WhatsAppSent)
	assert.EqualValues(t, 1, countRows(t, db, &models.OTPCode{}, ""))
}

func TestOTP_RateLimited(t *testing.T) {
	db := newTestDB(t)
	svc := newOTPService(t, db, &fakeRelay{}, utils.NewKeyedLimiter(time.Minute, 1))
	ctx := context.Background()

	_, err := svc.Request(ctx, "22334455")
	require.NoError(t, err)

	_, err = svc.Request(ctx, "+22222334455")
	requireKind(t, err, ErrRateLimited)

	_, err = svc.Request(ctx, "33445566")
	require.NoError(t, err)
}

func TestOTP_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newOTPService(t, db, &fakeRelay{}, nil)
	ctx := context.Background()

	_, err := svc.Request(ctx, "abc")
	requireKind(t, err, ErrValidation)

	_, err = svc.Verify(ctx, "22334455", "12")
	requireKind(t, err, ErrValidation)

	_, err = svc.Verify(ctx, "22334455", "123456")
	requireKind(t, err, ErrValidation)
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "22334455", want: "22334455", ok: true},
		{in: "+22222334455", want: "22334455", ok: true},
		{in: "00222 2233 4455", want: "22334455", ok: true},
		{in: "2233445", ok: false},
		{in: "2233445x", ok: false},
	}
	for _, tt := range tests {
		got, ok := NormalizePhone(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
