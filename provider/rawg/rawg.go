// Package rawg implements the RAWG.io game database as a media provider.
// It is the primary source in the chain: search for the title, prefer an
// exact name match over the top hit, then pull the description, background
// art and short screenshots from the game details.
package rawg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/provider"
)

const defaultBaseURL = "https://api.rawg.io/api"

// descriptionSentences clamps RAWG's often essay-length descriptions to a
// browsable blurb.
const descriptionSentences = 3

// Client talks to the RAWG API. Search results and details are memoized so
// one resolution's description and image fetches share a single lookup.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	memo    *gocache.Cache
}

// NewClient builds a RAWG client with the given API key.
func NewClient(apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = provider.NewHTTPClient(15 * time.Second)
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    httpClient,
		memo:    gocache.New(10*time.Minute, 20*time.Minute),
	}
}

// SetBaseURL points the client at a different API root. Used in tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimSuffix(base, "/")
}

func (c *Client) Name() string { return "rawg" }

type searchResult struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type gameDetails struct {
	ID                        int    `json:"id"`
	Name                      string `json:"name"`
	DescriptionRaw            string `json:"description_raw"`
	Description               string `json:"description"`
	BackgroundImage           string `json:"background_image"`
	BackgroundImageAdditional string `json:"background_image_additional"`
	ShortScreenshots          []struct {
		Image string `json:"image"`
	} `json:"short_screenshots"`
}

// SearchDescription returns a short description for the game.
func (c *Client) SearchDescription(ctx context.Context, title, platform string) (string, bool) {
	details, err := c.details(ctx, title)
	if err != nil {
		logging.Debug("rawg lookup failed", "title", title, "error", err)
		return "", false
	}
	text := details.DescriptionRaw
	if text == "" {
		text = provider.StripHTML(details.Description)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return provider.ClampSentences(text, descriptionSentences), true
}

// FetchImages downloads the background art (served as the cover) and short
// screenshots, up to maxImages. Individual download failures are skipped;
// the error reports the last one for logging.
func (c *Client) FetchImages(ctx context.Context, title, platform string, maxImages int) ([]provider.RawImage, error) {
	details, err := c.details(ctx, title)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		prefix string
		url    string
	}
	var candidates []candidate
	if details.BackgroundImage != "" {
		candidates = append(candidates, candidate{"background_", details.BackgroundImage})
	}
	for _, s := range details.ShortScreenshots {
		if s.Image != "" {
			candidates = append(candidates, candidate{"screenshot_", s.Image})
		}
	}
	if details.BackgroundImageAdditional != "" {
		candidates = append(candidates, candidate{"screenshot_", details.BackgroundImageAdditional})
	}

	var images []provider.RawImage
	var lastErr error
	for _, cand := range candidates {
		if len(images) >= maxImages {
			break
		}
		if ctx.Err() != nil {
			return images, ctx.Err()
		}
		data, err := provider.DownloadImage(ctx, c.http, cand.url)
		if err != nil {
			lastErr = err
			continue
		}
		images = append(images, provider.RawImage{
			Filename: provider.HashName(cand.prefix, cand.url),
			Data:     data,
		})
	}
	return images, lastErr
}

// details resolves a title to its game details, going through the memo.
func (c *Client) details(ctx context.Context, title string) (*gameDetails, error) {
	if cached, ok := c.memo.Get(title); ok {
		return cached.(*gameDetails), nil
	}

	id, err := c.search(ctx, title)
	if err != nil {
		return nil, err
	}

	var details gameDetails
	u := fmt.Sprintf("%s/games/%d?key=%s", c.baseURL, id, url.QueryEscape(c.apiKey))
	if err := c.getJSON(ctx, u, &details); err != nil {
		return nil, err
	}
	c.memo.SetDefault(title, &details)
	return &details, nil
}

// search returns the game ID for a title: an exact case-insensitive name
// match when present, the top hit otherwise.
func (c *Client) search(ctx context.Context, title string) (int, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("search", title)
	q.Set("page_size", "5")

	var body struct {
		Results []searchResult `json:"results"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/games?"+q.Encode(), &body); err != nil {
		return 0, err
	}
	if len(body.Results) == 0 {
		return 0, fmt.Errorf("no results for %q", title)
	}
	for _, r := range body.Results {
		if strings.EqualFold(r.Name, title) {
			return r.ID, nil
		}
	}
	return body.Results[0].ID, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rawg: status %d for %s", resp.StatusCode, req.URL.Path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
