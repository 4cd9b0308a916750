package contentproc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestExtractYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"not youtube", "https://example.com/article", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractYouTubeVideoID(tt.url); got != tt.want {
				t.Errorf("ExtractYouTubeVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestHeaderImageURL_YouTubeShortCircuit(t *testing.T) {
	got, err := HeaderImageURL(context.Background(), nil, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"
	if got != want {
		t.Errorf("HeaderImageURL() = %q, want %q", got, want)
	}
}

func TestHeaderImageURL_FallsBackToOGImage(t *testing.T) {
	html := `<html><head><meta property="og:image" content="https://example.com/banner.jpg"></head><body></body></html>`
	got, err := HeaderImageURL(context.Background(), nil, "https://example.com/article", html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com/banner.jpg" {
		t.Errorf("expected og:image fallback, got %q", got)
	}
}

func TestHeaderImageURL_NoImageFound(t *testing.T) {
	html := `<html><head></head><body><p>no image here</p></body></html>`
	got, err := HeaderImageURL(context.Background(), nil, "https://example.com/article", html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestCompressImage_ScalesDownAndEncodesJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1200, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 1200; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatalf("failed to prepare test fixture: %v", err)
	}

	out, contentType, err := CompressImage(buf.Bytes())
	if err != nil {
		t.Fatalf("CompressImage returned error: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("expected content type 'image/jpeg', got %q", contentType)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("failed to decode compressed output: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() > 600 || bounds.Dy() > 600 {
		t.Errorf("expected output within 600x600, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCompressImage_InvalidDataReturnsError(t *testing.T) {
	_, _, err := CompressImage([]byte("not an image"))
	if err == nil {
		t.Fatal("expected an error decoding invalid image data")
	}
}
