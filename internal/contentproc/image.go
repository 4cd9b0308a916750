package contentproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"
)

// Image sizing/quality, ported from original_source's
// MAX_IMAGE_WIDTH/HEIGHT and JPEG_QUALITY constants.
const (
	maxImageWidth  = 600
	maxImageHeight = 600
	jpegQuality    = 65
)

var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`)

// ExtractYouTubeVideoID pulls the 11-character video id out of any of
// YouTube's URL forms, or returns "" if urlStr isn't a YouTube URL.
func ExtractYouTubeVideoID(urlStr string) string {
	m := youtubeIDPattern.FindStringSubmatch(urlStr)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// HeaderImageURL resolves the image to use as an article's header, in
// priority order grounded on original_source's extract_image_from_url:
//  1. A YouTube thumbnail, if pageURL is a YouTube video.
//  2. fxtwitter's API-provided image, if pageURL is an x.com/twitter.com post.
//  3. The page's og:image meta tag.
func HeaderImageURL(ctx context.Context, client *http.Client, pageURL, html string) (string, error) {
	if id := ExtractYouTubeVideoID(pageURL); id != "" {
		return fmt.Sprintf("https://i.ytimg.com/vi/%s/maxresdefault.jpg", id), nil
	}

	if img, ok := fxTwitterImage(ctx, client, pageURL); ok {
		return img, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && og != "" {
		return og, nil
	}
	return "", nil
}

var tweetURLPattern = regexp.MustCompile(`(?:twitter\.com|x\.com)/[^/]+/status/(\d+)`)

type fxTwitterResponse struct {
	Tweet struct {
		Media struct {
			Photos []struct {
				URL string `json:"url"`
			} `json:"photos"`
		} `json:"media"`
	} `json:"tweet"`
}

// fxTwitterImage calls the fxtwitter.com mirror API to recover a tweet's
// first photo, since Twitter/X's own embed markup requires JS to render.
func fxTwitterImage(ctx context.Context, client *http.Client, pageURL string) (string, bool) {
	m := tweetURLPattern.FindStringSubmatch(pageURL)
	if len(m) != 2 {
		return "", false
	}
	apiURL := fmt.Sprintf("https://api.fxtwitter.com/status/%s", url.PathEscape(m[1]))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", false
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var parsed fxTwitterResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false
	}
	if len(parsed.Tweet.Media.Photos) == 0 {
		return "", false
	}
	return parsed.Tweet.Media.Photos[0].URL, true
}

// CompressImage decodes raw image bytes, scales them down to at most
// maxImageWidth x maxImageHeight (preserving aspect ratio, never upscaling),
// and re-encodes as JPEG at jpegQuality — the Go analogue of
// original_source's compress_image (PIL thumbnail + re-save).
func CompressImage(data []byte) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scale := 1.0
	if w > maxImageWidth {
		scale = float64(maxImageWidth) / float64(w)
	}
	if hs := float64(maxImageHeight) / float64(h); h > maxImageHeight && hs < scale {
		scale = hs
	}

	dst := src
	if scale < 1.0 {
		newW, newH := int(float64(w)*scale), int(float64(h)*scale)
		if newW < 1 {
			newW = 1
		}
		if newH < 1 {
			newH = 1
		}
		resized := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(resized, resized.Bounds(), src, bounds, draw.Over, nil)
		dst = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
