// Package ocr recognizes text in receipt photos.
package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 10 << 20

var (
	ErrNoText           = errors.New("no text recognized")
	ErrImageTooLarge    = errors.New("image too large")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// Recognizer turns an image into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, languageHint string) (string, error)
}

// CheckImage rejects empty, oversized and non-image uploads.
func CheckImage(image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}
	if len(image) > MaxImageBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(image), MaxImageBytes)
	}
	if ct := http.DetectContentType(image); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, ct)
	}
	return nil
}

// CachedRecognizer remembers recent results by image digest so the same
// photo submitted twice is recognized once.
type CachedRecognizer struct {
	next  Recognizer
	cache *gocache.Cache
}

var _ Recognizer = (*CachedRecognizer)(nil)

func NewCachedRecognizer(next Recognizer, ttl time.Duration) *CachedRecognizer {
	return &CachedRecognizer{next: next, cache: gocache.New(ttl, 2*ttl)}
}

func (c *CachedRecognizer) Recognize(ctx context.Context, image []byte, languageHint string) (string, error) {
	sum := sha256.Sum256(image)
	key := languageHint + ":" + hex.EncodeToString(sum[:])

	if text, ok := c.cache.Get(key); ok {
		return text.(string), nil
	}

	text, err := c.next.Recognize(ctx, image, languageHint)
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(key, text)
	return text, nil
}
