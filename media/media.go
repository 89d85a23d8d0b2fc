// Package media resolves and caches cover art, screenshots and descriptions
// for catalog games.
//
// Assets are fetched opportunistically from a fixed chain of rate-limited
// third party providers and persisted to a per-game directory, so each
// provider is asked about a game at most once per resolution and a satisfied
// cache never touches the network.
package media

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category labels an image asset.
type Category string

const (
	CategoryCover      Category = "cover"
	CategoryScreenshot Category = "screenshot"
)

// GameKey identifies a game in the media cache. Title is the canonical
// catalog spelling; Console is an optional qualifier passed through to
// providers as a platform hint.
type GameKey struct {
	Title   string
	Console string
}

// NewGameKey builds a key from a catalog title and console.
func NewGameKey(title, console string) GameKey {
	return GameKey{Title: title, Console: console}
}

// Dir returns the filesystem directory name for this key: alphanumerics,
// dashes and underscores are kept, spaces become underscores, everything
// else is stripped.
func (k GameKey) Dir() string {
	var b strings.Builder
	for _, r := range k.Title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}

func (k GameKey) String() string {
	if k.Console == "" {
		return k.Title
	}
	return fmt.Sprintf("%s (%s)", k.Title, k.Console)
}

// ImageAsset is one stored image belonging to a game.
type ImageAsset struct {
	Filename       string   `json:"filename"`
	Category       Category `json:"category"`
	SourceProvider string   `json:"source_provider,omitempty"`
	StoredPath     string   `json:"stored_path"`
}

// MediaRecord is the resolved media state of one game. Images are ordered:
// when any image exists, index 0 is the cover.
type MediaRecord struct {
	Title          string       `json:"title"`
	Console        string       `json:"console,omitempty"`
	Images         []ImageAsset `json:"images"`
	Description    string       `json:"description,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	LastResolvedAt time.Time    `json:"last_resolved_at,omitempty"`
}

// ImageCount returns the number of stored images.
func (r *MediaRecord) ImageCount() int {
	return len(r.Images)
}

// Cover returns the cover asset, if any.
func (r *MediaRecord) Cover() (ImageAsset, bool) {
	if len(r.Images) == 0 {
		return ImageAsset{}, false
	}
	return r.Images[0], true
}

// Policy is the completeness target for a game's media.
type Policy struct {
	Covers      int
	Screenshots int
}

// DefaultPolicy returns the standard completeness target: one cover and
// four screenshots.
func DefaultPolicy() Policy {
	return Policy{Covers: 1, Screenshots: 4}
}

// WithScreenshots returns a copy of the policy with the screenshot count
// replaced, keeping the minimum of one.
func (p Policy) WithScreenshots(n int) Policy {
	if n < 1 {
		n = 1
	}
	p.Screenshots = n
	return p
}

// CacheStatus reports the on-disk state of a game's media.
type CacheStatus struct {
	Covers          int
	Screenshots     int
	HasDescription  bool
	SatisfiesPolicy bool
}

// Sentinel errors for the resolution flow. Provider failures never surface
// from Resolve; these cover the conditions callers can act on.
var (
	ErrQuotaExhausted = errors.New("provider daily quota exhausted")
	ErrAssetNotFound  = errors.New("asset not found")
)

// StoreError wraps a filesystem failure in the persistent store. It is the
// only error class that terminates a resolution.
type StoreError struct {
	Op  string // Operation that failed (e.g., "save asset")
	Key string // Game directory if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s '%s': %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
