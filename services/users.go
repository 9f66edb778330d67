package services

import (
	"context"
	"errors"
	"strings"

	"photosocial/db"
	"photosocial/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const listUsersLimit = 10

type RegisterInput struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginResult struct {
	Token        string `json:"token"`
	ID           string `json:"id"`
	ProfilePhoto string `json:"profilePhoto"`
}

type EditProfileInput struct {
	FullName *string `json:"fullName"`
	Bio      *string `json:"bio"`
}

type UserService struct {
	deps Deps
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Email) == "" ||
		in.Password == "" || in.ConfirmPassword == "" {
		return nil, ValidationError("Fill in all fields")
	}

	email := normalizeEmail(in.Email)
	var exists int64
	if err := db.GetWriteDB(ctx).Model(&models.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ConflictError("Email already exist")
	}
	if in.Password != in.ConfirmPassword {
		return nil, ValidationError("Passwords do not match")
	}
	if len(strings.TrimSpace(in.Password)) < minPasswordLength {
		return nil, ValidationError("Password length must be at least 6 characters")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    email,
		Password: hash,
	}
	if err := db.GetWriteDB(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ConflictError("Email already exist")
		}
		return nil, err
	}
	s.deps.Logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login answers the same way for an unknown email and a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ValidationError("Fill in all fields")
	}

	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := VerifyPassword(user.Password, password)
	if err != nil {
		s.deps.Logger.Warn("unreadable password hash", zap.String("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.deps.Tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ID: user.ID, ProfilePhoto: user.ProfilePhoto}, nil
}

func (s *UserService) Logout(ctx context.Context, claims *Claims) error {
	return s.deps.Tokens.Revoke(ctx, claims)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := db.GetReadOnlyDB(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return &user, nil
}

// List returns the most recently registered users.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := db.GetReadOnlyDB(ctx).
		Order("created_at DESC").
		Limit(listUsersLimit).
		Find(&users).Error
	return users, err
}

// Edit changes the caller's own display name and bio.
func (s *UserService) Edit(ctx context.Context, callerID string, in EditProfileInput) (*models.User, error) {
	if in.FullName != nil && strings.TrimSpace(*in.FullName) == "" {
		return nil, ValidationError("Full name cannot be empty")
	}
	user, err := db.UpdateDocument[models.User](ctx, db.GetWriteDB(ctx), callerID, func(u *models.User) error {
		if in.FullName != nil {
			u.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.Bio != nil {
			u.Bio = *in.Bio
		}
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return user, nil
}

// ChangeAvatar uploads a new avatar and points the caller at it. Comment
// snapshots taken earlier keep the old photo.
func (s *UserService) ChangeAvatar(ctx context.Context, callerID string, img *ImageUpload) (*models.User, error) {
	if err := validateImage(img, s.deps.Options.AvatarMaxBytes, "Choose an avatar."); err != nil {
		return nil, err
	}

	url, err := s.deps.Blobs.Upload(ctx, BlobKindImage, img.Filename, img.Data)
	if err != nil {
		return nil, UpstreamError("Couldn't upload image", err)
	}

	var previous string
	user, err := db.UpdateDocument[models.User](ctx, db.GetWriteDB(ctx), callerID, func(u *models.User) error {
		previous = u.ProfilePhoto
		u.ProfilePhoto = url
		return nil
	})
	if err != nil {
		s.deps.Janitor.Enqueue(ctx, url)
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	if previous != models.DefaultProfilePhoto {
		s.deps.Janitor.Enqueue(ctx, previous)
	}
	return user, nil
}
