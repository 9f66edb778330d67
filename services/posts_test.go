package services

import (
	"context"
	"errors"
	"testing"

	"photosocial/db"
	"photosocial/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostAppendsToCreator(t *testing.T) {
	env := setupServices(t, Options{})
	u1 := env.register(t, "Ada", "a@x.com")

	p := env.createPost(t, u1.ID, "hello")
	assert.Equal(t, u1.ID, p.Creator)
	assert.Equal(t, "hello", p.Body)
	assert.Empty(t, p.Likes)
	assert.NotEmpty(t, p.Image)

	assert.Equal(t, models.IDList{p.ID}, loadUser(t, u1.ID).Posts)
}

func TestCreatePostValidation(t *testing.T) {
	env := setupServices(t, Options{PostImageMaxBytes: 100})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")

	_, err := env.svc.Posts.CreatePost(ctx, u1.ID, "", &ImageUpload{Filename: "a.png", Data: pngBytes})
	requireKind(t, err, KindValidation)

	_, err = env.svc.Posts.CreatePost(ctx, u1.ID, "hello", nil)
	requireKind(t, err, KindValidation)

	big := append(append([]byte(nil), pngBytes...), make([]byte, 100)...)
	_, err = env.svc.Posts.CreatePost(ctx, u1.ID, "hello", &ImageUpload{Filename: "a.png", Data: big})
	requireKind(t, err, KindValidation)

	assert.Empty(t, env.blobs.uploaded)
	assert.Empty(t, loadUser(t, u1.ID).Posts)
}

func TestCreatePostPartialWriteLeavesPost(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()

	// the creator record is missing, so the back-reference step fails
	_, err := env.svc.Posts.CreatePost(ctx, "ghost", "hello", &ImageUpload{Filename: "a.png", Data: pngBytes})
	var partial *db.PartialWriteError
	require.True(t, errors.As(err, &partial), "got %v", err)
	assert.Equal(t, "post.create", partial.Operation)
	assert.Equal(t, []string{"insert post"}, partial.Applied)

	var count int64
	require.NoError(t, db.ORM.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreatePostAtomicRollsBack(t *testing.T) {
	env := setupServices(t, Options{AtomicPairedWrites: true})
	ctx := context.Background()

	_, err := env.svc.Posts.CreatePost(ctx, "ghost", "hello", &ImageUpload{Filename: "a.png", Data: pngBytes})
	assert.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	require.NoError(t, db.ORM.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, env.blobs.uploaded, env.blobs.Deleted())
}

func TestToggleLikeIsInvolution(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")
	p := env.createPost(t, u1.ID, "hello")

	liked, err := env.svc.Posts.ToggleLike(ctx, u1.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IDList{u1.ID}, liked.Likes)

	unliked, err := env.svc.Posts.ToggleLike(ctx, u1.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
	assert.Empty(t, loadPost(t, p.ID).Likes)
}

func TestToggleLikeFromDifferentUsers(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")
	u2 := env.register(t, "Bob", "b@x.com")
	p := env.createPost(t, u1.ID, "hello")

	_, err := env.svc.Posts.ToggleLike(ctx, u1.ID, p.ID)
	require.NoError(t, err)
	_, err = env.svc.Posts.ToggleLike(ctx, u2.ID, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{u1.ID, u2.ID}, loadPost(t, p.ID).Likes)

	_, err = env.svc.Posts.ToggleLike(ctx, u2.ID, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestToggleBookmark(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")
	u2 := env.register(t, "Bob", "b@x.com")
	p := env.createPost(t, u1.ID, "hello")

	u, err := env.svc.Posts.ToggleBookmark(ctx, u2.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IDList{p.ID}, u.Bookmarks)

	bookmarks, err := env.svc.Posts.Bookmarks(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, p.ID, bookmarks[0].ID)

	u, err = env.svc.Posts.ToggleBookmark(ctx, u2.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Bookmarks)

	_, err = env.svc.Posts.ToggleBookmark(ctx, u2.ID, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")
	u2 := env.register(t, "Bob", "b@x.com")
	p := env.createPost(t, u1.ID, "hello")

	_, err := env.svc.Posts.UpdatePost(ctx, u2.ID, p.ID, "hijacked")
	requireKind(t, err, KindAuthorization)
	assert.Equal(t, "hello", loadPost(t, p.ID).Body)

	updated, err := env.svc.Posts.UpdatePost(ctx, u1.ID, p.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)

	_, err = env.svc.Posts.UpdatePost(ctx, u1.ID, "missing", "edited")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePostCascades(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")
	u2 := env.register(t, "Bob", "b@x.com")
	p := env.createPost(t, u1.ID, "hello")
	keep := env.createPost(t, u1.ID, "second")
	_, err := env.svc.Comments.Create(ctx, u2.ID, p.ID, "nice!")
	require.NoError(t, err)
	_, err = env.svc.Posts.ToggleBookmark(ctx, u2.ID, p.ID)
	require.NoError(t, err)

	_, err = env.svc.Posts.DeletePost(ctx, u2.ID, p.ID)
	requireKind(t, err, KindAuthorization)

	deleted, err := env.svc.Posts.DeletePost(ctx, u1.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	assert.Equal(t, models.IDList{keep.ID}, loadUser(t, u1.ID).Posts)
	var comments int64
	require.NoError(t, db.ORM.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
	assert.Equal(t, int64(0), comments)
	assert.Contains(t, env.blobs.Deleted(), p.Image)

	// the dangling bookmark is skipped on read
	bookmarks, err := env.svc.Posts.Bookmarks(ctx, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)

	_, err = env.svc.Posts.DeletePost(ctx, u1.ID, p.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestFeedsAndListings(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")
	u2 := env.register(t, "Bob", "b@x.com")
	u3 := env.register(t, "Cy", "c@x.com")
	p1 := env.createPost(t, u1.ID, "first")
	p2 := env.createPost(t, u2.ID, "second")
	p3 := env.createPost(t, u2.ID, "third")
	env.createPost(t, u3.ID, "unrelated")

	all, err := env.svc.Posts.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "unrelated", all[0].Body)

	feed, err := env.svc.Posts.FollowingFeed(ctx, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, feed)

	_, err = env.svc.Users.ToggleFollow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	feed, err = env.svc.Posts.FollowingFeed(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, p3.ID, feed[0].ID)
	assert.Equal(t, p2.ID, feed[1].ID)

	own, err := env.svc.Posts.UserPosts(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, p1.ID, own[0].ID)

	_, err = env.svc.Posts.UserPosts(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetPostExpandsThread(t *testing.T) {
	env := setupServices(t, Options{})
	ctx := context.Background()
	u1 := env.register(t, "Ada", "a@x.com")
	u2 := env.register(t, "Bob", "b@x.com")
	p := env.createPost(t, u1.ID, "hello")

	c1, err := env.svc.Comments.Create(ctx, u2.ID, p.ID, "first")
	require.NoError(t, err)
	c2, err := env.svc.Comments.Create(ctx, u1.ID, p.ID, "second")
	require.NoError(t, err)

	name := "Robert"
	_, err = env.svc.Users.Edit(ctx, u2.ID, EditProfileInput{FullName: &name})
	require.NoError(t, err)

	detail, err := env.svc.Posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.CreatorProfile)
	assert.Equal(t, "Ada", detail.CreatorProfile.FullName)
	require.Len(t, detail.Thread, 2)
	assert.Equal(t, c2.ID, detail.Thread[0].ID)
	assert.Equal(t, c1.ID, detail.Thread[1].ID)

	// snapshot stays, the resolved author is live
	assert.Equal(t, "Bob", detail.Thread[1].Creator.CreatorName)
	require.NotNil(t, detail.Thread[1].Author)
	assert.Equal(t, "Robert", detail.Thread[1].Author.FullName)

	_, err = env.svc.Posts.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}
