package describe

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

type captionFunc func(ctx context.Context, dataURL string) (string, error)

func (f captionFunc) Caption(ctx context.Context, dataURL string) (string, error) {
	return f(ctx, dataURL)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save png: %v", err)
	}
}

func TestImageDescriberCaptionsDownsizedJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_0001.png")
	writePNG(t, path, 1600, 900)

	var sent string
	d := NewImageDescriber(captionFunc(func(_ context.Context, dataURL string) (string, error) {
		sent = dataURL
		return "a red square", nil
	}), &Counter{}, 256)

	label, err := d.Describe(context.Background(), path)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if label != "a red square" {
		t.Fatalf("unexpected label %q", label)
	}
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(sent, prefix) {
		t.Fatalf("unexpected data url prefix: %.40q", sent)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sent, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	cfg, format, err := image.DecodeConfig(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if format != "jpeg" || cfg.Width != 256 || cfg.Height != 144 {
		t.Fatalf("unexpected encoded image %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestImageDescriberUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	called := false
	d := NewImageDescriber(captionFunc(func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	}), &Counter{}, 0)

	res := Label(context.Background(), d, path, 0)
	if called {
		t.Fatal("captioner should not be called for undecodable image")
	}
	if !res.Fallback || res.Label != "unnamed_image_1" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestImageDescriberCaptionFailureUsesSharedCounter(t *testing.T) {
	dir := t.TempDir()
	counter := &Counter{}
	d := NewImageDescriber(captionFunc(func(context.Context, string) (string, error) {
		return "", errors.New("model offline")
	}), counter, 0)

	var labels []string
	for _, name := range []string{"a.png", "b.png"} {
		path := filepath.Join(dir, name)
		writePNG(t, path, 8, 8)
		labels = append(labels, Label(context.Background(), d, path, 0).Label)
	}
	if labels[0] != "unnamed_image_1" || labels[1] != "unnamed_image_2" {
		t.Fatalf("unexpected fallback labels %v", labels)
	}
	if counter.Value() != 2 {
		t.Fatalf("expected counter at 2, got %d", counter.Value())
	}
}
