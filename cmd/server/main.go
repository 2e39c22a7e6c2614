package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/maurigift/internal/cache"
	"github.com/example/maurigift/internal/config"
	"github.com/example/maurigift/internal/database"
	"github.com/example/maurigift/internal/events"
	"github.com/example/maurigift/internal/routes"
	"github.com/example/maurigift/internal/services"
	"github.com/example/maurigift/internal/storage"
	"github.com/example/maurigift/internal/utils"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	db, err := database.Connect(cfg.DatabaseURL, !cfg.IsProd)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("migration failed")
	}

	var catalogCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logrus.WithError(err).Warn("redis unavailable; catalog cache disabled")
		} else {
			defer rc.Close()
			catalogCache = rc
		}
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	}
	defer publisher.Close()

	var receipts storage.ReceiptStore
	if cfg.StorageURL != "" {
		receipts = storage.NewBucketStore(cfg.StorageURL, cfg.ReceiptsBucket, cfg.StorageKey)
	} else {
		local, err := storage.NewLocalStore(cfg.ReceiptsDir)
		if err != nil {
			logrus.WithError(err).Fatal("receipt store init failed")
		}
		receipts = local
	}

	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	whatsapp := services.NewWhatsAppService(services.WhatsAppConfig{
		APIURL:     cfg.TwilioAPIURL,
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
	})

	authService := services.NewAuthService(db, cfg.SessionTTL)
	catalogService := services.NewCatalogService(db, catalogCache, cfg.CatalogTTL, services.SettingsDefaults{
		PaymentNumber: cfg.DefaultPaymentNumber,
		AppName:       cfg.AppName,
		AppVersion:    cfg.AppVersion,
	})

	deps := routes.Deps{
		DB:   db,
		Auth: authService,
		OTP: services.NewOTPService(db, authService, whatsapp, services.OTPConfig{
			TTL:         cfg.OTPTTL,
			CountryCode: cfg.PhoneCountryCode,
			Limiter:     utils.NewKeyedLimiter(cfg.OTPResendEvery, cfg.OTPBurst),
		}),
		Orders: services.NewOrderService(db, services.OrderServiceConfig{
			Store:     receipts,
			Publisher: publisher,
			Alerter:   telegram,
			Linker: services.ReceiptLinker{
				Secret:  cfg.ReceiptURLSecret,
				TTL:     cfg.ReceiptURLTTL,
				BaseURL: cfg.PublicBaseURL,
			},
			MaxReceiptBytes: cfg.MaxReceiptBytes,
		}),
		Notifications: services.NewNotificationService(db),
		Catalog:       catalogService,
		Admin:         services.NewAdminService(db, catalogService),
		AuthLimiter:   utils.NewKeyedLimiter(time.Second, 20),
		Version:       cfg.AppVersion,
	}

	app := routes.NewApp(deps, routes.AppOptions{
		Name:           cfg.AppName,
		RequestTimeout: cfg.RequestTimeout,
		// base64 inflates receipts by a third, plus JSON framing.
		BodyLimit: cfg.MaxReceiptBytes*4/3 + 64<<10,
	})

	go func() {
		logrus.WithField("port", cfg.AppPort).Info("starting server")
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			logrus.WithError(err).Fatal("fiber.Listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
