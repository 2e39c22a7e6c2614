package database

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/maurigift/internal/models"
)

// Connect opens the postgres database, creating it first when missing.
func Connect(dsn string, verbose bool) (*gorm.DB, error) {
	if err := ensureDatabase(dsn); err != nil {
		return nil, err
	}

	logMode := logger.Warn
	if verbose {
		logMode = logger.Info
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.Session{},
		&models.OTPCode{},
		&models.Category{},
		&models.Product{},
		&models.ProductGuide{},
		&models.PaymentMethodRecord{},
		&models.Order{},
		&models.Notification{},
		&models.AuditLog{},
		&models.Setting{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	logrus.WithField("tables", len(migrations)).Info("database migrated")
	return nil
}

func ensureDatabase(dsn string) error {
	dbName, masterDSN, ok := splitDSN(dsn)
	if !ok {
		return nil
	}

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return createDatabaseIfMissing(ctx, sqlDB, dbName)
}

// splitDSN returns the target database name and a DSN pointing at the maintenance database.
func splitDSN(dsn string) (string, string, bool) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return "", "", false
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", "", false
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return "", "", false
	}

	parsed.Path = "/postgres"
	return dbName, parsed.String(), true
}

func createDatabaseIfMissing(ctx context.Context, sqlDB *sql.DB, dbName string) error {
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	logrus.WithField("database", dbName).Info("creating database")
	_, err := sqlDB.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName))
	return err
}
