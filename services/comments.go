package services

import (
	"context"
	"errors"
	"strings"

	"photosocial/db"
	"photosocial/models"

	"gorm.io/gorm"
)

type CommentService struct {
	deps Deps
}

// Create stores the comment with a snapshot of the caller's name and photo
// and appends it to the post's comments.
func (cs *CommentService) Create(ctx context.Context, callerID, postID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ValidationError("Comment cannot be empty")
	}

	conn := db.GetWriteDB(ctx)
	var caller models.User
	if err := conn.Where("id = ?", callerID).First(&caller).Error; err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	var post models.Post
	if err := conn.Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}

	comment := &models.Comment{
		Creator: models.CommentCreator{
			CreatorID:    caller.ID,
			CreatorName:  caller.FullName,
			CreatorPhoto: caller.ProfilePhoto,
		},
		Comment: text,
		PostID:  post.ID,
	}
	err := db.NewPairedWrite("comment.create").
		Step("insert comment", func(tx *gorm.DB) error {
			return tx.Create(comment).Error
		}).
		Step("post comments", func(tx *gorm.DB) error {
			_, err := db.UpdateDocument[models.Post](ctx, tx, post.ID, func(p *models.Post) error {
				p.Comments = append(p.Comments, comment.ID)
				return nil
			})
			return notFoundAs(err, ErrPostNotFound)
		}).
		Exec(ctx, conn, cs.deps.Options.AtomicPairedWrites)
	if err != nil {
		return nil, err
	}

	cs.deps.Notifier.Notify(ctx, Event{
		Type:      EventCommentCreated,
		Recipient: post.Creator,
		ActorID:   callerID,
		PostID:    post.ID,
		CommentID: comment.ID,
	})
	return comment, nil
}

// ListForPost returns the comments of a post, newest first.
func (cs *CommentService) ListForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	conn := db.GetReadOnlyDB(ctx)
	var exists int64
	if err := conn.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrPostNotFound
	}
	comments := []models.Comment{}
	err := conn.Where("post_id = ?", postID).Order("created_at DESC").Find(&comments).Error
	return comments, err
}

// Delete removes the caller's own comment and pulls it from its post. A
// post that no longer exists is skipped.
func (cs *CommentService) Delete(ctx context.Context, callerID, commentID string) (*models.Comment, error) {
	conn := db.GetWriteDB(ctx)
	var comment models.Comment
	if err := conn.Where("id = ?", commentID).First(&comment).Error; err != nil {
		return nil, notFoundAs(err, ErrCommentNotFound)
	}
	if comment.Creator.CreatorID != callerID {
		return nil, AuthorizationError("Unauthorized actions")
	}

	err := db.NewPairedWrite("comment.delete").
		Step("delete comment", func(tx *gorm.DB) error {
			res := tx.Where("id = ?", comment.ID).Delete(&models.Comment{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrCommentNotFound
			}
			return nil
		}).
		Step("post comments", func(tx *gorm.DB) error {
			_, err := db.UpdateDocument[models.Post](ctx, tx, comment.PostID, func(p *models.Post) error {
				p.Comments = models.Remove(p.Comments, comment.ID)
				return nil
			})
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}).
		Exec(ctx, conn, cs.deps.Options.AtomicPairedWrites)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
