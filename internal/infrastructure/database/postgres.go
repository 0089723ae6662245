package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
)

// fullTextIndexes holds the search indexes AutoMigrate cannot express.
// Expression indexes must match the query-side tsvector expression
// exactly or the planner ignores them.
var fullTextIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_tweets_text_search
		ON tweets USING GIN (to_tsvector('english', text))`,
	`CREATE INDEX IF NOT EXISTS idx_messages_text_search
		ON messages USING GIN (to_tsvector('english', text))`,
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&entities.Author{},
		&entities.Tweet{},
		&entities.Channel{},
		&entities.Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	for _, ddl := range fullTextIndexes {
		if err := db.Exec(ddl).Error; err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
	}

	return db, nil
}
