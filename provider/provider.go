// Package provider defines the external game metadata sources and the
// helpers they share. Each provider turns a title plus platform hint into
// a description and a set of downloadable images; the resolution engine
// walks providers in a fixed order and treats every failure as "nothing
// from this source".
package provider

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Client is a single metadata source.
type Client interface {
	// Name identifies the provider in sidecar attribution, metrics and
	// rate limiting.
	Name() string

	// SearchDescription returns a description for the game, or ok=false
	// when the provider has nothing. Errors are not surfaced; an
	// unreachable provider is simply an empty one.
	SearchDescription(ctx context.Context, title, platform string) (string, bool)

	// FetchImages downloads up to maxImages images for the game. A partial
	// result with a nil error is normal; the error is informational and
	// never aborts a resolution.
	FetchImages(ctx context.Context, title, platform string, maxImages int) ([]RawImage, error)
}

// RawImage is a downloaded image ready for the store.
type RawImage struct {
	Filename string
	Data     []byte
}

// maxImageBytes caps a single download. Covers and screenshots from the
// supported providers are well under this.
const maxImageBytes = 20 << 20

// DownloadImage fetches url and returns the body when the response is an
// image. Non-200 responses and non-image content types are errors.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("download %s: not an image (%s)", url, ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// HashName builds a stable filename for a source URL: the categorization
// prefix plus the first 8 hex chars of the URL's md5. Re-fetching the same
// URL always lands on the same file, so duplicates are free.
func HashName(prefix, url string) string {
	sum := md5.Sum([]byte(url))
	return fmt.Sprintf("%s%x.jpg", prefix, sum[:4])
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// StripHTML removes markup and collapses whitespace. Provider descriptions
// arrive as loose HTML fragments.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ClampSentences keeps at most n sentences of text, splitting on sentence
// terminators. Short texts pass through unchanged.
func ClampSentences(s string, n int) string {
	if n <= 0 {
		return ""
	}
	var out strings.Builder
	count := 0
	for i, r := range s {
		out.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Decimal points and ellipses are not sentence ends.
			rest := s[i+len(string(r)):]
			if rest == "" || strings.HasPrefix(rest, " ") {
				count++
				if count >= n {
					break
				}
			}
		}
	}
	return strings.TrimSpace(out.String())
}

// NewHTTPClient returns the http.Client providers share, with the fetch
// timeout applied.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
