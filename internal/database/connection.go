package database

import (
	"errors"
	"github.com/thereayou/letschat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"os"
)

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	return d.Init(db)
}

// Init выполняет миграции поверх готового подключения.
// Вынесен отдельно, чтобы в тестах подключать sqlite.
func (d *Database) Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Chat{}, &models.Message{}); err != nil {
		return err
	}

	d.db = db

	return nil
}
