// /internal/storage/storage.go
package storage

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const searchResultLimit = 24

type Storage struct {
	db *gorm.DB

	// MinFuzzyScore is the minimum similarity score a fuzzy title match
	// must reach before it is ranked into search results.
	MinFuzzyScore int
}

// New opens (or creates) the SQLite database at filePath and migrates the
// schema. Use ":memory:" for an ephemeral database.
func New(filePath string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(filePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if filePath == ":memory:" {
		// Every pooled connection to :memory: is its own database; keep one.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&GuildSettings{}, &Track{}, &Requester{}, &PlayHistory{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
