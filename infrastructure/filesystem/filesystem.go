package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// BlobStore holds evidence photos addressed by slash-separated keys.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageExtension returns the canonical extension for an image file name or
// content type, and false when the type is not accepted as evidence.
func ImageExtension(filename, contentType string) (string, bool) {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		_, ok := imageTypes[ext]
		return ext, ok
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	for ext, t := range imageTypes {
		if t == mediaType && ext != ".jpeg" {
			return ext, true
		}
	}
	return "", false
}

func ContentType(key string) string {
	if t, ok := imageTypes[strings.ToLower(path.Ext(key))]; ok {
		return t
	}
	return "application/octet-stream"
}

// EvidenceKey builds prefix/<userID>/<uuid><ext>.
func EvidenceKey(prefix string, userID uint, ext string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return path.Join(prefix, fmt.Sprint(userID), id.String()+ext), nil
}

// CleanKey rejects keys that would escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}
