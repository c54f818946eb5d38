// Package storage persists generated assets and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// ObjectStore uploads bytes under a key and reports where clients can fetch them.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ImageKey builds the object key for a job result.
func ImageKey(ownerID, jobID, contentType string) string {
	return path.Join("images", ownerID, jobID+ExtensionFor(contentType))
}

// ExtensionFor maps an image MIME type to a file extension.
func ExtensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func joinURL(base, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(key, "/"))
}
