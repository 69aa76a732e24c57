package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/server/uploads"
)

// ImageService stores uploaded trip images.
type ImageService struct {
	store uploads.Store
	now   func() time.Time
}

func NewImageService(store uploads.Store) *ImageService {
	return &ImageService{store: store, now: time.Now}
}

// Upload saves an image and returns its URL. Only image/* content types
// are accepted.
func (s *ImageService) Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", fmt.Errorf("%w: unsupported content type %q", common.ErrorValidation, contentType)
	}

	url, err := s.store.Save(ctx, uploads.NewKey(s.now(), filename), contentType, body, size)
	if err != nil {
		return "", fmt.Errorf("error storing image: %w", err)
	}
	return url, nil
}
