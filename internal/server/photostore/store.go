// Package photostore persists profile photo blobs and hands back the public
// path under which they can be fetched. Two backends exist: local disk
// (served by the API under /uploads) and an S3-compatible object store.
package photostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store saves an encoded image under key and returns its public path.
type Store interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
}

// RandomKey builds a date-partitioned object key for a new photo, e.g.
// "photos/2026/8/28/8f14e45f.jpg".
func RandomKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("photos/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
