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

type PostService struct {
	deps Deps
}

// CreatePost uploads the image, inserts the post and appends it to the
// creator's posts. The post exists before the back-reference is written.
func (ps *PostService) CreatePost(ctx context.Context, callerID, body string, img *ImageUpload) (*models.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ValidationError("Fill in text field and choose image")
	}
	if err := validateImage(img, ps.deps.Options.PostImageMaxBytes, "Please choose an image"); err != nil {
		return nil, err
	}

	url, err := ps.deps.Blobs.Upload(ctx, BlobKindImage, img.Filename, img.Data)
	if err != nil {
		return nil, UpstreamError("Couldn't upload image", err)
	}

	post := &models.Post{Creator: callerID, Body: body, Image: url}
	err = db.NewPairedWrite("post.create").
		Step("insert post", func(tx *gorm.DB) error {
			return tx.Create(post).Error
		}).
		Step("creator posts", func(tx *gorm.DB) error {
			_, err := db.UpdateDocument[models.User](ctx, tx, callerID, func(u *models.User) error {
				u.Posts = append(u.Posts, post.ID)
				return nil
			})
			return notFoundAs(err, ErrUserNotFound)
		}).
		Exec(ctx, db.GetWriteDB(ctx), ps.deps.Options.AtomicPairedWrites)
	if err != nil {
		var partial *db.PartialWriteError
		if !errors.As(err, &partial) {
			ps.deps.Janitor.Enqueue(ctx, url)
		}
		return nil, err
	}
	ps.deps.Logger.Debug("post created", zap.String("post_id", post.ID), zap.String("creator", callerID))
	return post, nil
}

// GetPost returns the post with its creator and its comments, newest first.
// Comment authors are resolved against current user data.
func (ps *PostService) GetPost(ctx context.Context, postID string) (*models.PostDetail, error) {
	conn := db.GetReadOnlyDB(ctx)
	var post models.Post
	if err := conn.Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}

	comments := []models.Comment{}
	if len(post.Comments) > 0 {
		err := conn.Where("id IN ?", []string(post.Comments)).
			Order("created_at DESC").
			Find(&comments).Error
		if err != nil {
			return nil, err
		}
	}

	userIDs := []string{post.Creator}
	for _, c := range comments {
		userIDs = append(userIDs, c.Creator.CreatorID)
	}
	profiles, err := loadProfiles(conn, userIDs)
	if err != nil {
		return nil, err
	}

	detail := &models.PostDetail{Post: post, Thread: make([]models.CommentDetail, 0, len(comments))}
	if p, ok := profiles[post.Creator]; ok {
		detail.CreatorProfile = &p
	}
	for _, c := range comments {
		cd := models.CommentDetail{Comment: c}
		if p, ok := profiles[c.Creator.CreatorID]; ok {
			cd.Author = &p
		}
		detail.Thread = append(detail.Thread, cd)
	}
	return detail, nil
}

func loadProfiles(conn *gorm.DB, ids []string) (map[string]models.UserProfile, error) {
	var users []models.User
	if err := conn.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	profiles := make(map[string]models.UserProfile, len(users))
	for i := range users {
		profiles[users[i].ID] = users[i].Profile()
	}
	return profiles, nil
}

// ListPosts returns every post, newest first.
func (ps *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := db.GetReadOnlyDB(ctx).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// FollowingFeed returns posts written by the users the caller follows.
func (ps *PostService) FollowingFeed(ctx context.Context, callerID string) ([]models.Post, error) {
	conn := db.GetReadOnlyDB(ctx)
	var caller models.User
	if err := conn.Where("id = ?", callerID).First(&caller).Error; err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	posts := []models.Post{}
	if len(caller.Following) == 0 {
		return posts, nil
	}
	err := conn.Where("creator IN ?", []string(caller.Following)).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// UserPosts resolves a user's posts list, newest first.
func (ps *PostService) UserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	conn := db.GetReadOnlyDB(ctx)
	var user models.User
	if err := conn.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return postsByIDs(conn, user.Posts)
}

// Bookmarks resolves the caller's bookmarks, newest post first. Bookmarks
// of posts deleted since are skipped.
func (ps *PostService) Bookmarks(ctx context.Context, callerID string) ([]models.Post, error) {
	conn := db.GetReadOnlyDB(ctx)
	var user models.User
	if err := conn.Where("id = ?", callerID).First(&user).Error; err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return postsByIDs(conn, user.Bookmarks)
}

func postsByIDs(conn *gorm.DB, ids models.IDList) ([]models.Post, error) {
	posts := []models.Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	err := conn.Where("id IN ?", []string(ids)).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// UpdatePost edits the body. Only the creator may do it.
func (ps *PostService) UpdatePost(ctx context.Context, callerID, postID, body string) (*models.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ValidationError("Fill in text field")
	}
	post, err := db.UpdateDocument[models.Post](ctx, db.GetWriteDB(ctx), postID, func(p *models.Post) error {
		if p.Creator != callerID {
			return AuthorizationError("You can't update this post since you are not the creator")
		}
		p.Body = body
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}
	return post, nil
}

// DeletePost removes the post, pulls it from the creator's posts and
// deletes its comments. Only the creator may do it.
func (ps *PostService) DeletePost(ctx context.Context, callerID, postID string) (*models.Post, error) {
	conn := db.GetWriteDB(ctx)
	var post models.Post
	if err := conn.Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}
	if post.Creator != callerID {
		return nil, AuthorizationError("You can't delete this post since you are not the creator")
	}

	err := db.NewPairedWrite("post.delete").
		Step("delete post", func(tx *gorm.DB) error {
			res := tx.Where("id = ? AND creator = ?", post.ID, callerID).Delete(&models.Post{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrPostNotFound
			}
			return nil
		}).
		Step("creator posts", func(tx *gorm.DB) error {
			_, err := db.UpdateDocument[models.User](ctx, tx, post.Creator, func(u *models.User) error {
				u.Posts = models.Remove(u.Posts, post.ID)
				return nil
			})
			return notFoundAs(err, ErrUserNotFound)
		}).
		Step("post comments", func(tx *gorm.DB) error {
			return tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error
		}).
		Exec(ctx, conn, ps.deps.Options.AtomicPairedWrites)
	if err != nil {
		return nil, err
	}

	ps.deps.Janitor.Enqueue(ctx, post.Image)
	return &post, nil
}

// ToggleLike likes the post for the caller, or unlikes it if already liked.
func (ps *PostService) ToggleLike(ctx context.Context, callerID, postID string) (*models.Post, error) {
	liked := false
	post, err := db.UpdateDocument[models.Post](ctx, db.GetWriteDB(ctx), postID, func(p *models.Post) error {
		liked = !models.Contains(p.Likes, callerID)
		if liked {
			p.Likes = models.AddUnique(p.Likes, callerID)
		} else {
			p.Likes = models.Remove(p.Likes, callerID)
		}
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}
	if liked {
		ps.deps.Notifier.Notify(ctx, Event{Type: EventPostLiked, Recipient: post.Creator, ActorID: callerID, PostID: post.ID})
	}
	return post, nil
}

// ToggleBookmark adds the post to the caller's bookmarks, or removes it if
// already there. Posts carry no back-reference to their bookmarkers.
func (ps *PostService) ToggleBookmark(ctx context.Context, callerID, postID string) (*models.User, error) {
	user, err := db.UpdateDocument[models.User](ctx, db.GetWriteDB(ctx), callerID, func(u *models.User) error {
		if models.Contains(u.Bookmarks, postID) {
			u.Bookmarks = models.Remove(u.Bookmarks, postID)
			return nil
		}
		var exists int64
		if err := db.GetWriteDB(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrPostNotFound
		}
		u.Bookmarks = models.AddUnique(u.Bookmarks, postID)
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return user, nil
}
