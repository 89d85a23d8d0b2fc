// Package gamesdb implements TheGamesDB.net as a media provider. It is the
// fallback in the chain and the better source for real box art: RAWG serves
// promotional backgrounds, TheGamesDB serves front boxarts scanned from the
// actual releases.
package gamesdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/provider"
)

const (
	defaultBaseURL = "https://api.thegamesdb.net/v1"
	defaultCDN     = "https://cdn.thegamesdb.net/images/original/"
)

// descriptionSentences keeps TheGamesDB overviews readable; they run longer
// than RAWG's and often cover the whole plot.
const descriptionSentences = 8

// platformIDs maps catalog console names to TheGamesDB platform IDs, used
// to narrow searches. Unknown consoles search unfiltered.
var platformIDs = map[string]int{
	"NES":           7,
	"SNES":          6,
	"N64":           4,
	"GameCube":      2,
	"Wii":           9,
	"GB":            41,
	"GBC":           41,
	"GBA":           24,
	"Megadrive":     18,
	"Genesis":       18,
	"Master System": 35,
	"Saturn":        17,
	"Dreamcast":     16,
	"PlayStation":   10,
	"PS1":           10,
	"PS2":           11,
	"PSP":           13,
	"PC":            1,
}

// Client talks to TheGamesDB API.
type Client struct {
	apiKey  string
	baseURL string
	cdnBase string
	http    *http.Client
	memo    *gocache.Cache
}

// NewClient builds a TheGamesDB client with the given API key.
func NewClient(apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = provider.NewHTTPClient(15 * time.Second)
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		cdnBase: defaultCDN,
		http:    httpClient,
		memo:    gocache.New(10*time.Minute, 20*time.Minute),
	}
}

// SetBaseURL points the client at a different API root and image CDN. Used
// in tests.
func (c *Client) SetBaseURL(base string) {
	base = strings.TrimSuffix(base, "/")
	c.baseURL = base
	c.cdnBase = base + "/images/original/"
}

func (c *Client) Name() string { return "gamesdb" }

type game struct {
	ID       int    `json:"id"`
	Title    string `json:"game_title"`
	Overview string `json:"overview"`
}

// SearchDescription returns the overview of the best-matching game.
func (c *Client) SearchDescription(ctx context.Context, title, platform string) (string, bool) {
	g, err := c.find(ctx, title, platform)
	if err != nil {
		logging.Debug("gamesdb lookup failed", "title", title, "error", err)
		return "", false
	}
	text := strings.TrimSpace(provider.StripHTML(g.Overview))
	if text == "" {
		return "", false
	}
	return provider.ClampSentences(text, descriptionSentences), true
}

type imageEntry struct {
	Type     string `json:"type"`
	Side     string `json:"side"`
	Filename string `json:"filename"`
}

// FetchImages downloads the front boxart and screenshots for the game, up
// to maxImages, front boxart first.
func (c *Client) FetchImages(ctx context.Context, title, platform string, maxImages int) ([]provider.RawImage, error) {
	g, err := c.find(ctx, title, platform)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("games_id", strconv.Itoa(g.ID))
	q.Set("filter[type]", "boxart,screenshot")

	var body struct {
		Data struct {
			Images map[string][]imageEntry `json:"images"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/Games/Images?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	entries := body.Data.Images[strconv.Itoa(g.ID)]
	type candidate struct {
		prefix string
		url    string
	}
	var candidates []candidate
	for _, e := range entries {
		if e.Type == "boxart" && e.Side == "front" {
			candidates = append(candidates, candidate{"boxart_", c.imageURL(e.Filename)})
		}
	}
	for _, e := range entries {
		if e.Type == "screenshot" {
			candidates = append(candidates, candidate{"screenshot_", c.imageURL(e.Filename)})
		}
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

// imageURL expands a CDN-relative filename to a full URL.
func (c *Client) imageURL(filename string) string {
	if strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://") {
		return filename
	}
	return c.cdnBase + strings.TrimPrefix(filename, "/")
}

// find resolves a title to its best-matching game: an exact case-insensitive
// title match when present, the first result otherwise. Results are
// memoized per title and platform.
func (c *Client) find(ctx context.Context, title, platform string) (*game, error) {
	memoKey := title + "\x00" + platform
	if cached, ok := c.memo.Get(memoKey); ok {
		return cached.(*game), nil
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("name", title)
	q.Set("fields", "overview")
	if id, ok := platformIDs[platform]; ok {
		q.Set("filter[platform]", strconv.Itoa(id))
	}

	var body struct {
		Data struct {
			Games []game `json:"games"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/Games/ByGameName?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if len(body.Data.Games) == 0 {
		return nil, fmt.Errorf("no results for %q", title)
	}

	match := &body.Data.Games[0]
	for i := range body.Data.Games {
		if strings.EqualFold(body.Data.Games[i].Title, title) {
			match = &body.Data.Games[i]
			break
		}
	}
	c.memo.SetDefault(memoKey, match)
	return match, nil
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
		return fmt.Errorf("gamesdb: status %d for %s", resp.StatusCode, req.URL.Path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
