package db

import (
	"context"
	"errors"
	"testing"

	"photosocial/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}

func createUser(t *testing.T, database *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{FullName: "Test", Email: email, Password: "hash"}
	require.NoError(t, database.Create(u).Error)
	return u
}

func TestUpdateDocumentAppliesMutation(t *testing.T) {
	database := setupTestDB(t)
	u := createUser(t, database, "a@x.com")
	ctx := context.Background()

	updated, err := UpdateDocument[models.User](ctx, database, u.ID, func(doc *models.User) error {
		doc.Following = models.AddUnique(doc.Following, "peer")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.IDList{"peer"}, updated.Following)
	assert.Equal(t, int64(1), updated.Version)

	var stored models.User
	require.NoError(t, database.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, models.IDList{"peer"}, stored.Following)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, "a@x.com", stored.Email)
}

func TestUpdateDocumentMutateErrorWritesNothing(t *testing.T) {
	database := setupTestDB(t)
	u := createUser(t, database, "a@x.com")
	boom := errors.New("boom")

	_, err := UpdateDocument[models.User](context.Background(), database, u.ID, func(doc *models.User) error {
		doc.Bio = "changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	var stored models.User
	require.NoError(t, database.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, models.DefaultBio, stored.Bio)
	assert.Equal(t, int64(0), stored.Version)
}

func TestUpdateDocumentMissing(t *testing.T) {
	database := setupTestDB(t)
	_, err := UpdateDocument[models.Post](context.Background(), database, "nope", func(*models.Post) error { return nil })
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateDocumentRereadsAfterConcurrentWrite(t *testing.T) {
	database := setupTestDB(t)
	post := &models.Post{Creator: "owner", Body: "hello"}
	require.NoError(t, database.Create(post).Error)

	interfered := false
	updated, err := UpdateDocument[models.Post](context.Background(), database, post.ID, func(doc *models.Post) error {
		if !interfered {
			interfered = true
			// another caller likes the post between our read and write
			_, err := UpdateDocument[models.Post](context.Background(), database, post.ID, func(other *models.Post) error {
				other.Likes = models.AddUnique(other.Likes, "bob")
				return nil
			})
			require.NoError(t, err)
		}
		doc.Likes = models.AddUnique(doc.Likes, "alice")
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, []string(updated.Likes))
	assert.Equal(t, int64(2), updated.Version)
}

func TestIDListHelpers(t *testing.T) {
	list := models.IDList{"a"}
	list = models.AddUnique(list, "b")
	list = models.AddUnique(list, "a")
	assert.Equal(t, models.IDList{"a", "b"}, list)
	assert.True(t, models.Contains(list, "b"))

	list = append(list, "a")
	assert.Equal(t, models.IDList{"b"}, models.Remove(list, "a"))
}
