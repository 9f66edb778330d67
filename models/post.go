package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post - a photo post. Creator never changes after creation.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Creator   string    `gorm:"size:36;index;not null" json:"creator"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Image     string    `gorm:"size:1024" json:"image"`
	Likes     IDList    `json:"likes"`
	Comments  IDList    `json:"comments"`
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.normalize()
	return nil
}

func (p *Post) AfterFind(tx *gorm.DB) error {
	p.normalize()
	return nil
}

func (p *Post) normalize() {
	p.Likes = nonNil(p.Likes)
	p.Comments = nonNil(p.Comments)
}

func (p *Post) GetVersion() int64  { return p.Version }
func (p *Post) SetVersion(v int64) { p.Version = v }

// PostDetail - a post with its creator and comments expanded
type PostDetail struct {
	Post
	CreatorProfile *UserProfile    `json:"creatorProfile"`
	Thread         []CommentDetail `json:"thread"`
}
