package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"photosocial/db"
	"photosocial/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type fakeBlobStore struct {
	mu        sync.Mutex
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (f *fakeBlobStore) Upload(ctx context.Context, kind, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	url := fmt.Sprintf("https://blobs.test/%s/%d-%s", kind, len(f.uploaded), filename)
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeBlobStore) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakePeer struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failSend bool
}

func (p *fakePeer) Send(msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSend {
		return errors.New("peer gone")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePeer) Messages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.messages...)
}

type testEnv struct {
	svc      *Services
	blobs    *fakeBlobStore
	tokens   *TokenIssuer
	presence *PresenceRegistry
}

func setupServices(t *testing.T, opts Options) *testEnv {
	t.Helper()
	database, err := db.OpenInMemory(t.Name())
	require.NoError(t, err)
	previous := db.ORM
	db.ORM = database
	t.Cleanup(func() {
		db.ORM = previous
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := zaptest.NewLogger(t)
	blobs := &fakeBlobStore{}
	tokens := NewTokenIssuer(testSecret, time.Hour, nil)
	presence := NewPresenceRegistry(logger)
	svc := New(Deps{
		Logger:   logger,
		Tokens:   tokens,
		Blobs:    blobs,
		Janitor:  NewBlobJanitor(nil, blobs, logger),
		Notifier: NewNotifier(nil, presence, logger),
		Options:  opts,
	})
	return &testEnv{svc: svc, blobs: blobs, tokens: tokens, presence: presence}
}

func (e *testEnv) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := e.svc.Users.Register(context.Background(), RegisterInput{
		FullName:        name,
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) createPost(t *testing.T, creatorID, body string) *models.Post {
	t.Helper()
	p, err := e.svc.Posts.CreatePost(context.Background(), creatorID, body, &ImageUpload{Filename: "pic.png", Data: pngBytes})
	require.NoError(t, err)
	return p
}

func loadUser(t *testing.T, id string) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.ORM.First(&u, "id = ?", id).Error)
	return &u
}

func loadPost(t *testing.T, id string) *models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.ORM.First(&p, "id = ?", id).Error)
	return &p
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
