package storage

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/akhilcoder7733/hotelgram/logging"
)

const memory = ":memory:"

// ConnectDB opens the sqlite database at path and migrates models.
func ConnectDB(path string, logger *logrus.Logger, models ...any) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logging.Gorm(logger),
	})
	if err != nil {
		return nil, err
	}

	if path == memory {
		// every pooled connection to :memory: would otherwise get its own
		// empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"path": "storage", "db": path}).Info("connected to db")
	return db, nil
}

// Memory opens a migrated in-memory database, for tests.
func Memory(models ...any) (*gorm.DB, error) {
	return ConnectDB(memory, logging.Discard(), models...)
}
