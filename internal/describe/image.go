package describe

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"autosort/internal/services"
)

// DefaultMaxImageDimension bounds the longest side sent to the captioner.
const DefaultMaxImageDimension = 768

// Captioner produces a caption for an image passed as a data URL.
type Captioner interface {
	Caption(ctx context.Context, imageDataURL string) (string, error)
}

// ImageDescriber captions images with a vision model.
type ImageDescriber struct {
	captioner    Captioner
	counter      *Counter
	maxDimension int
}

// NewImageDescriber returns a describer that downsizes each image to fit in
// maxDimension pixels before captioning it. Fallback labels are numbered from
// counter.
func NewImageDescriber(captioner Captioner, counter *Counter, maxDimension int) *ImageDescriber {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxImageDimension
	}
	if counter == nil {
		counter = &Counter{}
	}
	return &ImageDescriber{captioner: captioner, counter: counter, maxDimension: maxDimension}
}

// Describe decodes path, applies EXIF orientation, and asks the captioner
// for a caption.
func (d *ImageDescriber) Describe(ctx context.Context, path string) (string, error) {
	if d.captioner == nil {
		return "", services.Wrap(services.ErrConfiguration, "describe", "image", "no captioner configured", nil)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	dataURL, err := encodeDataURL(img, d.maxDimension)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	caption, err := d.captioner.Caption(ctx, dataURL)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "describe", "caption", "", err)
	}
	return caption, nil
}

// Fallback returns unnamed_image_N.
func (d *ImageDescriber) Fallback(error) string {
	return fmt.Sprintf("unnamed_image_%d", d.counter.Next())
}

func encodeDataURL(img image.Image, maxDimension int) (string, error) {
	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
