package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	BLOB_CLEANUP_QUEUE = "blob_cleanup_queue"
	QUEUE_WORKER_COUNT = 2
)

// BlobJanitor deletes blobs that are no longer referenced (replaced avatars,
// images of deleted posts). With redis the deletions are queued and drained
// by workers; without it they run inline.
type BlobJanitor struct {
	rdb    *redis.Client
	blobs  BlobStore
	logger *zap.Logger
}

func NewBlobJanitor(rdb *redis.Client, blobs BlobStore, logger *zap.Logger) *BlobJanitor {
	return &BlobJanitor{rdb: rdb, blobs: blobs, logger: logger}
}

// Enqueue schedules url for deletion. Failures are logged, never returned.
func (j *BlobJanitor) Enqueue(ctx context.Context, url string) {
	if j == nil || url == "" {
		return
	}
	if j.rdb == nil {
		j.process(ctx, url)
		return
	}
	if err := j.rdb.RPush(ctx, BLOB_CLEANUP_QUEUE, url).Err(); err != nil {
		j.logger.Warn("failed to enqueue blob cleanup, deleting inline", zap.String("url", url), zap.Error(err))
		j.process(ctx, url)
	}
}

func (j *BlobJanitor) StartWorkers(ctx context.Context) {
	if j.rdb == nil {
		return
	}
	for i := 0; i < QUEUE_WORKER_COUNT; i++ {
		go j.worker(ctx, i)
	}
}

func (j *BlobJanitor) worker(ctx context.Context, workerID int) {
	j.logger.Info("blob cleanup worker started", zap.Int("worker", workerID))
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("blob cleanup worker stopping", zap.Int("worker", workerID))
			return
		default:
		}

		if _, err := j.drainOne(ctx, 5*time.Second); err != nil {
			if ctx.Err() != nil {
				return
			}
			j.logger.Warn("blob cleanup worker error", zap.Int("worker", workerID), zap.Error(err))
			time.Sleep(time.Second)
		}
	}
}

// drainOne waits up to timeout for one queued url and deletes it.
func (j *BlobJanitor) drainOne(ctx context.Context, timeout time.Duration) (bool, error) {
	result, err := j.rdb.BLPop(ctx, timeout, BLOB_CLEANUP_QUEUE).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(result) < 2 {
		return false, nil
	}
	j.process(ctx, result[1])
	return true, nil
}

func (j *BlobJanitor) process(ctx context.Context, url string) {
	if err := j.blobs.Delete(ctx, url); err != nil {
		j.logger.Warn("failed to delete blob", zap.String("url", url), zap.Error(err))
	}
}

func (j *BlobJanitor) QueueLength(ctx context.Context) (int64, error) {
	if j.rdb == nil {
		return 0, nil
	}
	return j.rdb.LLen(ctx, BLOB_CLEANUP_QUEUE).Result()
}
