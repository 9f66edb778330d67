package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const BlobKindImage = "image"

// ImageUpload is a raw image payload received from a client.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// BlobStore persists uploaded bytes and hands back a durable URL.
type BlobStore interface {
	Upload(ctx context.Context, kind, filename string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// LocalBlobStore keeps blobs on disk under dir and serves them from publicURL.
type LocalBlobStore struct {
	dir       string
	publicURL string
}

func NewLocalBlobStore(dir, publicURL string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalBlobStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalBlobStore) Upload(ctx context.Context, kind, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	kindDir := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(kindDir, os.ModePerm); err != nil {
		return "", err
	}

	name := blobName(filename)
	if err := os.WriteFile(filepath.Join(kindDir, name), data, 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, kind, name), nil
}

// Delete removes a blob this store issued. URLs it did not issue are ignored.
func (s *LocalBlobStore) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicURL+"/") {
		return nil
	}
	rel := strings.TrimPrefix(url, s.publicURL+"/")
	if strings.Contains(rel, "..") {
		return fmt.Errorf("refusing to delete %q", url)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// blobName keeps the client's base name and extension around a fresh uuid.
func blobName(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, stem)
	return stem + uuid.NewString() + strings.ToLower(ext)
}

// validateImage enforces presence, the size ceiling and an image content type.
func validateImage(img *ImageUpload, maxBytes int64, missingMsg string) error {
	if img == nil || len(img.Data) == 0 {
		return ValidationError(missingMsg)
	}
	if int64(len(img.Data)) > maxBytes {
		return ValidationError(fmt.Sprintf("File size too big. Should be less than %s", humanSize(maxBytes)))
	}
	if !strings.HasPrefix(mimetype.Detect(img.Data).String(), "image/") {
		return ValidationError("Uploaded file is not an image")
	}
	return nil
}

func humanSize(n int64) string {
	switch {
	case n >= 1_000_000 && n%1_000_000 == 0:
		return fmt.Sprintf("%dmb", n/1_000_000)
	case n >= 1_000 && n%1_000 == 0:
		return fmt.Sprintf("%dkb", n/1_000)
	}
	return fmt.Sprintf("%d bytes", n)
}
