package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/maurigift/internal/config"
	"github.com/example/maurigift/internal/database"
	"github.com/example/maurigift/internal/services"
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

	if cfg.AdminPhone == "" || cfg.AdminPIN == "" {
		logrus.Info("ADMIN_PHONE/ADMIN_PIN not set; skipping admin bootstrap")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := services.NewAuthService(db, cfg.SessionTTL).EnsureAdmin(ctx, cfg.AdminName, cfg.AdminPhone, cfg.AdminPIN)
	if err != nil {
		logrus.WithError(err).Fatal("admin bootstrap failed")
	}
	logrus.WithField("user_id", admin.ID).Info("admin account ready")
}
