package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentCreator is a snapshot of the author taken when the comment was written.
// It is not refreshed when the author later edits their profile.
type CommentCreator struct {
	CreatorID    string `gorm:"column:creator_id;size:36;index;not null" json:"creatorId"`
	CreatorName  string `gorm:"column:creator_name;size:255" json:"creatorName"`
	CreatorPhoto string `gorm:"column:creator_photo;size:1024" json:"creatorPhoto"`
}

type Comment struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Creator   CommentCreator `gorm:"embedded" json:"creator"`
	Comment   string         `gorm:"type:text;not null" json:"comment"`
	PostID    string         `gorm:"size:36;index;not null" json:"postId"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CommentDetail carries the live author profile next to the stored snapshot.
type CommentDetail struct {
	Comment
	Author *UserProfile `json:"author"`
}
