// Package storage keeps uploaded images: the school logo and question figures.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrBadKey           = errors.New("invalid blob key")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	URL(key string) string // public path the front end can load
}

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageKey returns a fresh key under kind (e.g. "logo", "questions") for an
// image of the given sniffed content type.
func ImageKey(kind, contentType string) (string, error) {
	ext, ok := imageExt[contentType]
	if !ok {
		return "", ErrUnsupportedImage
	}
	kind = strings.Trim(kind, "/")
	if kind == "" || strings.Contains(kind, "..") {
		return "", ErrBadKey
	}
	return path.Join(kind, uuid.NewString()+ext), nil
}

// ContentTypeOf maps a stored key back to its image content type.
func ContentTypeOf(key string) string {
	ext := path.Ext(key)
	for ct, e := range imageExt {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

// clean rejects absolute keys and keys escaping the store root.
func clean(key string) (string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))[1:]
	if k == "" || k != strings.TrimPrefix(key, "/") {
		return "", ErrBadKey
	}
	return k, nil
}
