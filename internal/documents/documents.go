// Package documents stores uploaded vehicle paperwork (insurance cards, registrations) in object storage.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("object not found")

// ErrUnsupportedType rejects uploads outside AllowedContentTypes.
var ErrUnsupportedType = errors.New("unsupported document type")

// AllowedContentTypes maps accepted MIME types to a file extension.
var AllowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/heic":      ".heic",
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// BlobStore is the object storage behind vehicle documents.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// CheckContentType normalises a Content-Type header (parameters dropped) and checks it is allowed.
func CheckContentType(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	if _, ok := AllowedContentTypes[ct]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return ct, nil
}

// ObjectKey builds <prefix>users/<uid>/vehicles/<vid>/<uuid>-<filename>.
func ObjectKey(prefix string, userID, vehicleID int64, fileName string) string {
	return fmt.Sprintf("%susers/%d/vehicles/%d/%s-%s", prefix, userID, vehicleID, uuid.NewString(), SanitizeFileName(fileName))
}

// SanitizeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "document"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
