package db

import (
	"fmt"

	"photosocial/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return createCommentThreadIndex(db)
}

// createCommentThreadIndex backs the "comments of a post, newest first" read.
func createCommentThreadIndex(db *gorm.DB) error {
	createIndexSQL := `CREATE INDEX IF NOT EXISTS idx_comments_post_id_created_at ON comments (post_id, created_at)`
	if err := db.Exec(createIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create index idx_comments_post_id_created_at: %w", err)
	}
	return nil
}
