package models

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/Daskott/haven/server/logger"
	"github.com/Daskott/haven/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "haven.db"

var logg = logger.NewLogger()

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func openDB(passPhrase string, dbFilePath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqliteEncrypt.Open(dbDSN(passPhrase, dbFilePath)), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	// sqlite only allows one writer, so serialize access through a single connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func dbDSN(passPhrase string, dbFilePath string) string {
	return fmt.Sprintf(
		"file:%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL&_foreign_keys=1",
		dbFilePath,
		passPhrase,
	)
}

// DbFilePath returns the location of the sqlite db under 'dbRootDir',
// creating the 'db' directory if needed
func DbFilePath(dbRootDir string) (string, error) {
	dbDir := filepath.Join(dbRootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dbDir, DB_NAME), nil
}
