package publish

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"BlogMigrator/internal/domain"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 85
	maxImageBytes = 10 << 20
)

// ImageFetcher downloads post images and re-encodes them as JPEG so every
// inline attachment matches its image{n}.jpg name.
type ImageFetcher struct {
	client *http.Client
}

// NewImageFetcher uses client, or a 10 second default when nil.
func NewImageFetcher(client *http.Client) *ImageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ImageFetcher{client: client}
}

// Fetch downloads imageURL and returns JPEG bytes, downscaled when wider
// than maxImageWidth.
func (f *ImageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, domain.Invalid("image", "invalid image url %q", imageURL)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %v", domain.ErrFetch, imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image %s: status %s", domain.ErrFetch, imageURL, resp.Status)
	}

	return toJPEG(io.LimitReader(resp.Body, maxImageBytes))
}

func toJPEG(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", domain.ErrParse, err)
	}

	bounds := img.Bounds()
	if w, h := bounds.Dx(), bounds.Dy(); w > maxImageWidth {
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, h*maxImageWidth/w))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
