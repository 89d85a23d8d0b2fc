// Package igdb implements IGDB as an optional, description-only provider
// at the tail of the chain. IGDB summaries are editorial rather than
// marketing copy, which makes them a good last resort, but its image API
// returns numeric IDs that need extra round trips, so images stay with the
// other providers.
package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	igdbapi "github.com/Henry-Sarabia/igdb/v2"

	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/provider"
)

// Client wraps the IGDB v4 API behind the provider interface.
type Client struct {
	api *igdbapi.Client
}

// NewClient authenticates against Twitch with the app credentials and
// returns a ready client.
func NewClient(clientID, clientSecret string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("igdb client ID and secret are required")
	}
	token, err := twitchToken(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("twitch authentication: %w", err)
	}
	return &Client{api: igdbapi.NewClient(clientID, token, nil)}, nil
}

func (c *Client) Name() string { return "igdb" }

// SearchDescription returns the summary of the best-matching game.
func (c *Client) SearchDescription(ctx context.Context, title, platform string) (string, bool) {
	games, err := c.api.Games.Search(
		title,
		igdbapi.SetFields("name", "summary"),
		igdbapi.SetLimit(5),
	)
	if err != nil || len(games) == 0 {
		if err != nil {
			logging.Debug("igdb search failed", "title", title, "error", err)
		}
		return "", false
	}

	match := games[0]
	for _, g := range games {
		if strings.EqualFold(g.Name, title) {
			match = g
			break
		}
	}
	if match.Summary == "" {
		return "", false
	}
	return match.Summary, true
}

// FetchImages always returns nothing; IGDB is description-only here.
func (c *Client) FetchImages(ctx context.Context, title, platform string, maxImages int) ([]provider.RawImage, error) {
	return nil, nil
}

// twitchToken fetches an app access token from Twitch for the IGDB API.
func twitchToken(clientID, clientSecret string) (string, error) {
	vals := url.Values{}
	vals.Set("client_id", clientID)
	vals.Set("client_secret", clientSecret)
	vals.Set("grant_type", "client_credentials")

	resp, err := http.PostForm("https://id.twitch.tv/oauth2/token", vals)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}
