package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestBlobJanitorQueuesAndDrains(t *testing.T) {
	_, rdb := newRedis(t)
	blobs := &fakeBlobStore{}
	j := NewBlobJanitor(rdb, blobs, zaptest.NewLogger(t))
	ctx := context.Background()

	j.Enqueue(ctx, "https://blobs.test/image/1.png")
	j.Enqueue(ctx, "")
	n, err := j.QueueLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, blobs.Deleted())

	ok, err := j.drainOne(ctx, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"https://blobs.test/image/1.png"}, blobs.Deleted())

	ok, err = j.drainOne(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlobJanitorWorkers(t *testing.T) {
	_, rdb := newRedis(t)
	blobs := &fakeBlobStore{}
	// workers outlive the test body, so they must not log through t
	j := NewBlobJanitor(rdb, blobs, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j.StartWorkers(ctx)
	j.Enqueue(ctx, "https://blobs.test/image/2.png")

	assert.Eventually(t, func() bool {
		return len(blobs.Deleted()) == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestBlobJanitorInlineWithoutRedis(t *testing.T) {
	blobs := &fakeBlobStore{}
	j := NewBlobJanitor(nil, blobs, zaptest.NewLogger(t))
	j.Enqueue(context.Background(), "https://blobs.test/image/3.png")
	assert.Equal(t, []string{"https://blobs.test/image/3.png"}, blobs.Deleted())

	var none *BlobJanitor
	none.Enqueue(context.Background(), "https://blobs.test/image/4.png")
}
