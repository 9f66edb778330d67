package services

import (
	"context"

	"photosocial/db"
	"photosocial/models"

	"gorm.io/gorm"
)

type FollowResult struct {
	Following bool
	Target    *models.User
}

// ToggleFollow follows target when the caller does not follow them yet and
// unfollows otherwise. Both sides of the edge (caller.following and
// target.followers) are written by one paired write.
func (s *UserService) ToggleFollow(ctx context.Context, callerID, targetID string) (*FollowResult, error) {
	if callerID == targetID {
		return nil, ValidationError("You can't follow/unfollow yourself")
	}

	conn := db.GetWriteDB(ctx)
	var caller models.User
	if err := conn.Where("id = ?", callerID).First(&caller).Error; err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	var exists int64
	if err := conn.Model(&models.User{}).Where("id = ?", targetID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrUserNotFound
	}

	follow := !models.Contains(caller.Following, targetID)
	edit := models.Remove
	operation := "user.unfollow"
	if follow {
		edit = models.AddUnique
		operation = "user.follow"
	}

	var target *models.User
	err := db.NewPairedWrite(operation).
		Step("caller following", func(tx *gorm.DB) error {
			_, err := db.UpdateDocument[models.User](ctx, tx, callerID, func(u *models.User) error {
				u.Following = edit(u.Following, targetID)
				return nil
			})
			return err
		}).
		Step("target followers", func(tx *gorm.DB) error {
			updated, err := db.UpdateDocument[models.User](ctx, tx, targetID, func(u *models.User) error {
				u.Followers = edit(u.Followers, callerID)
				return nil
			})
			target = updated
			return err
		}).
		Exec(ctx, conn, s.deps.Options.AtomicPairedWrites)
	if err != nil {
		return nil, err
	}

	if follow {
		s.deps.Notifier.Notify(ctx, Event{Type: EventUserFollowed, Recipient: targetID, ActorID: callerID})
	}
	return &FollowResult{Following: follow, Target: target}, nil
}
