package database

import (
	"fmt"
	"sentimentvelocity/src/model"

	"gorm.io/gorm"

	"github.com/sirupsen/logrus"
)

// ReadOnlyDB serves the HTTP read API. The database user behind
// DATABASE_URL_READONLY should have SELECT-only permissions.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB initializes the read-only database connection.
// It does not run any migrations and should only be used for reading data.
func InitReadOnlyDB() error {
	config := GetConfig()

	dsn := config.DatabaseURLReadOnly
	if dsn == "" {
		dsn = mainDSN(config)
	}

	db, err := Open(config, dsn)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from ReadOnlyDB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping ReadOnlyDB: %w", err)
	}

	var count int64
	if err := db.Model(&model.Signal{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to access signals: %w", err)
	}

	logrus.WithFields(map[string]interface{}{"count": count}).Info("[ReadOnlyDB] signals reachable")

	ReadOnlyDB = db

	return nil
}
