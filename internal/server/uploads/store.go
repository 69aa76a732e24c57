// Package uploads stores trip images and returns the URL clients use to
// fetch them. FileStore writes to a local directory served by the API
// itself; S3Store puts objects into an S3-compatible bucket and hands out
// presigned GET links.
package uploads

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists one image under key and returns its public URL.
type Store interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// NewKey returns a unique object key that keeps the extension of filename.
func NewKey(now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if len(ext) > 8 || strings.ContainsAny(ext, "/?#%") {
		ext = ""
	}
	return fmt.Sprintf("trips/%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}
