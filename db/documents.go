package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const maxDocumentAttempts = 8

var ErrWriteConflict = errors.New("document changed concurrently")

type Versioned interface {
	GetVersion() int64
	SetVersion(int64)
}

// UpdateDocument reads the document with the given id, applies mutate and
// writes every column back, guarded by the version it read. A concurrent
// writer makes the guard fail and the document is re-read, so each call is
// atomic for that one document. Returning an error from mutate aborts
// without writing.
func UpdateDocument[T any, PT interface {
	*T
	Versioned
}](ctx context.Context, conn *gorm.DB, id string, mutate func(PT) error) (PT, error) {
	for attempt := 0; attempt < maxDocumentAttempts; attempt++ {
		doc := PT(new(T))
		if err := conn.WithContext(ctx).Where("id = ?", id).First(doc).Error; err != nil {
			return nil, err
		}
		read := doc.GetVersion()
		if err := mutate(doc); err != nil {
			return nil, err
		}
		doc.SetVersion(read + 1)

		res := conn.WithContext(ctx).Model(doc).
			Where("version = ?", read).
			Select("*").
			Updates(doc)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("update %s: %w", id, ErrWriteConflict)
}
