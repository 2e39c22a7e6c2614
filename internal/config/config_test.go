package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("RECEIPT_URL_SECRET", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()

	assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 5<<20, cfg.MaxReceiptBytes)
	assert.Equal(t, "+222", cfg.PhoneCountryCode)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Len(t, cfg.ReceiptURLSecret, 64)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("IS_PROD", "true")
	t.Setenv("SESSION_TTL_DAYS", "7")
	t.Setenv("OTP_BURST", "5")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("PUBLIC_BASE_URL", "https://gifts.example.com/")
	t.Setenv("RECEIPT_URL_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "9000", cfg.AppPort)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.OTPBurst)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://gifts.example.com", cfg.PublicBaseURL)
	assert.Equal(t, "s3cret", cfg.ReceiptURLSecret)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	(&Config{LogLevel: "debug"}).SetupLogging()
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	(&Config{LogLevel: "chatty"}).SetupLogging()
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
