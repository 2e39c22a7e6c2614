package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPIN_RoundTrip(t *testing.T) {
	t.Parallel()

	hashed, err := HashPIN("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hashed)
	assert.True(t, CheckPIN(hashed, "1234"))
	assert.False(t, CheckPIN(hashed, "4321"))
	assert.False(t, CheckPIN("", "1234"))
}

func TestNewToken_Is256BitHex(t *testing.T) {
	t.Parallel()

	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", a)
	assert.NotEqual(t, a, b)
	assert.Len(t, SHA256Hex(a), 64)
	assert.NotEqual(t, a, SHA256Hex(a))
}

func TestReceiptToken(t *testing.T) {
	t.Parallel()

	token, err := SignReceiptPath("secret", "o-1/1700000000000.png", time.Minute)
	require.NoError(t, err)

	path, err := ParseReceiptToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "o-1/1700000000000.png", path)

	_, err = ParseReceiptToken("other", token)
	assert.Error(t, err)

	expired, err := SignReceiptPath("secret", "o-1/x.png", -time.Minute)
	require.NoError(t, err)
	_, err = ParseReceiptToken("secret", expired)
	assert.Error(t, err)
}

func TestKeyedLimiter(t *testing.T) {
	t.Parallel()

	l := NewKeyedLimiter(time.Hour, 2)
	assert.True(t, l.Allow("22334455"))
	assert.True(t, l.Allow("22334455"))
	assert.False(t, l.Allow("22334455"))
	assert.True(t, l.Allow("33445566"))

	var disabled *KeyedLimiter
	assert.True(t, disabled.Allow("x"))
}

func TestParsePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query  string
		ok     bool
		limit  int
		offset int
	}{
		{query: "", ok: false},
		{query: "?page=2", ok: true, limit: 20, offset: 20},
		{query: "?page=3&limit=10", ok: true, limit: 10, offset: 20},
		{query: "?limit=-5", ok: true, limit: 20, offset: 0},
		{query: "?limit=1000", ok: true, limit: 200, offset: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			app := fiber.New()
			var got Pagination
			var ok bool
			app.Get("/", func(c *fiber.Ctx) error {
				got, ok = ParsePagination(c)
				return c.SendStatus(fiber.StatusNoContent)
			})

			_, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.limit, got.Limit)
			assert.Equal(t, tt.offset, got.Offset)
		})
	}
}
