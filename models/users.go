package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultProfilePhoto = "https://res.cloudinary.com/dtogqb89u/image/upload/v1750269528/Sample_User_Icon_cdmvkz.png"
	DefaultBio          = "No bio yet"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	FullName     string    `gorm:"size:255;not null" json:"fullName"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	ProfilePhoto string    `gorm:"size:1024" json:"profilePhoto"`
	Bio          string    `gorm:"type:text" json:"bio"`
	Followers    IDList    `json:"followers"`
	Following    IDList    `json:"following"`
	Bookmarks    IDList    `json:"bookmarks"`
	Posts        IDList    `json:"posts"`
	Version      int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.ProfilePhoto == "" {
		u.ProfilePhoto = DefaultProfilePhoto
	}
	if u.Bio == "" {
		u.Bio = DefaultBio
	}
	u.normalize()
	return nil
}

func (u *User) AfterFind(tx *gorm.DB) error {
	u.normalize()
	return nil
}

func (u *User) normalize() {
	u.Followers = nonNil(u.Followers)
	u.Following = nonNil(u.Following)
	u.Bookmarks = nonNil(u.Bookmarks)
	u.Posts = nonNil(u.Posts)
}

func (u *User) GetVersion() int64  { return u.Version }
func (u *User) SetVersion(v int64) { u.Version = v }

// UserProfile is the public projection used when a user is embedded in another response.
type UserProfile struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	ProfilePhoto string `json:"profilePhoto"`
	Bio          string `json:"bio"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:           u.ID,
		FullName:     u.FullName,
		ProfilePhoto: u.ProfilePhoto,
		Bio:          u.Bio,
	}
}
