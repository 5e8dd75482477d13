package db

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errDBUnavailable = errors.New("database unavailable")

func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errDBUnavailable
	}
	return conn.AutoMigrate(
		&ReceiptModel{},
		&TransparencyLeafModel{},
		&TreeHeadModel{},
	)
}
