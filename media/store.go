package media

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
)

// sidecarName is the per-directory metadata file. It never shows up as an
// asset because it has no image extension.
const sidecarName = "metadata.json"

// Meta is the sidecar record kept next to a game's images.
type Meta struct {
	Description      string            `json:"description,omitempty"`
	DescriptionAdmin bool              `json:"description_admin,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Order            []string          `json:"order,omitempty"`
	Sources          map[string]string `json:"sources,omitempty"`
	LastResolvedAt   time.Time         `json:"last_resolved_at,omitempty"`
}

// Store owns the on-disk media layout: one directory per game under the
// media root, image files inside, plus the metadata sidecar. All writes go
// through a temp file and rename so concurrent readers never observe a
// partial file.
type Store struct {
	root string

	// Sidecar updates are read-modify-write; the per-key mutex keeps an
	// admin write from being overwritten by a concurrent engine write
	// that read the sidecar first.
	metaMu   *csmap.CsMap[string, *sync.Mutex]
	metaInit sync.Mutex
}

// NewStore creates a store rooted at the given directory, creating it if
// needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &StoreError{Op: "create media root", Err: err}
	}
	return &Store{
		root:   root,
		metaMu: csmap.Create[string, *sync.Mutex](),
	}, nil
}

// Root returns the media root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory for a game key. The directory may not exist yet.
func (s *Store) Dir(key GameKey) string {
	return filepath.Join(s.root, key.Dir())
}

// ListAssets returns the ordered image assets for a key.
//
// Ordering rules, strongest first: an explicit admin order pins the full
// sequence and its first entry is served as the cover; otherwise
// categorization puts covers before screenshots, alphabetical within each
// group; with no cover categorized, the first asset is promoted so the set
// is never coverless. A missing directory is an empty, non-error result.
func (s *Store) ListAssets(key GameKey) ([]ImageAsset, error) {
	dir := s.Dir(key)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "list assets", Key: key.Dir(), Err: err}
	}

	meta, err := s.Meta(key)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(meta.Order) > 0 {
		names = applyOrder(names, meta.Order)
	} else {
		names = coverFirst(names)
	}

	assets := make([]ImageAsset, 0, len(names))
	for i, name := range names {
		cat := Categorize(name)
		// Exactly one cover, always at index 0.
		if i == 0 {
			cat = CategoryCover
		} else if cat == CategoryCover {
			cat = CategoryScreenshot
		}
		assets = append(assets, ImageAsset{
			Filename:       name,
			Category:       cat,
			SourceProvider: meta.Sources[name],
			StoredPath:     filepath.Join(dir, name),
		})
	}
	return assets, nil
}

// applyOrder sequences names by the explicit order list; files the list
// does not mention follow alphabetically, files it mentions but that no
// longer exist are skipped.
func applyOrder(names, order []string) []string {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	out := make([]string, 0, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range order {
		if present[n] && !taken[n] {
			out = append(out, n)
			taken[n] = true
		}
	}
	for _, n := range names {
		if !taken[n] {
			out = append(out, n)
		}
	}
	return out
}

// coverFirst moves categorized covers ahead of screenshots, keeping the
// alphabetical order within each group.
func coverFirst(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if Categorize(n) == CategoryCover {
			out = append(out, n)
		}
	}
	for _, n := range names {
		if Categorize(n) != CategoryCover {
			out = append(out, n)
		}
	}
	return out
}

// SaveAsset writes an image atomically. Existing files are kept as-is: an
// asset, once written, is immutable until deleted. The provider is recorded
// in the sidecar so re-inspection can attribute the file.
func (s *Store) SaveAsset(key GameKey, filename string, data []byte, provider string) (ImageAsset, error) {
	dir := s.Dir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ImageAsset{}, &StoreError{Op: "create game dir", Key: key.Dir(), Err: err}
	}

	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err == nil {
		return ImageAsset{
			Filename:       filename,
			Category:       Categorize(filename),
			SourceProvider: provider,
			StoredPath:     path,
		}, nil
	}

	if err := atomicWrite(path, data); err != nil {
		return ImageAsset{}, &StoreError{Op: "save asset", Key: key.Dir(), Err: err}
	}

	if provider != "" {
		err := s.updateMeta(key, func(m *Meta) {
			if m.Sources == nil {
				m.Sources = make(map[string]string)
			}
			m.Sources[filename] = provider
		})
		if err != nil {
			return ImageAsset{}, err
		}
	}

	return ImageAsset{
		Filename:       filename,
		Category:       Categorize(filename),
		SourceProvider: provider,
		StoredPath:     path,
	}, nil
}

// DeleteAsset removes a stored image. Deleting does not trigger a re-fetch;
// that only happens on a later Resolve that finds the policy unsatisfied.
func (s *Store) DeleteAsset(key GameKey, filename string) error {
	path := filepath.Join(s.Dir(key), filename)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, filename)
	}
	if err != nil {
		return &StoreError{Op: "delete asset", Key: key.Dir(), Err: err}
	}
	return s.updateMeta(key, func(m *Meta) {
		delete(m.Sources, filename)
	})
}

// Meta reads the sidecar for a key. A missing sidecar or directory yields
// a zero Meta, not an error.
func (s *Store) Meta(key GameKey) (Meta, error) {
	var meta Meta
	data, err := os.ReadFile(filepath.Join(s.Dir(key), sidecarName))
	if os.IsNotExist(err) {
		return meta, nil
	}
	if err != nil {
		return meta, &StoreError{Op: "read sidecar", Key: key.Dir(), Err: err}
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, &StoreError{Op: "decode sidecar", Key: key.Dir(), Err: err}
	}
	return meta, nil
}

// SetOrder persists an explicit asset order. It overrides derived ordering
// for this key until replaced by the next SetOrder.
func (s *Store) SetOrder(key GameKey, filenames []string) error {
	return s.updateMeta(key, func(m *Meta) {
		m.Order = append([]string(nil), filenames...)
	})
}

// SetDescription stores a description. Admin descriptions are flagged and
// are never replaced by provider text; provider writes against an existing
// admin description are dropped silently.
func (s *Store) SetDescription(key GameKey, text string, admin bool) error {
	return s.updateMeta(key, func(m *Meta) {
		if m.DescriptionAdmin && !admin {
			return
		}
		m.Description = text
		m.DescriptionAdmin = admin
	})
}

// DeleteDescription clears the description and its admin flag, so the next
// resolution is free to fill it from a provider again.
func (s *Store) DeleteDescription(key GameKey) error {
	return s.updateMeta(key, func(m *Meta) {
		m.Description = ""
		m.DescriptionAdmin = false
	})
}

// SetTags stores the tag set for a key.
func (s *Store) SetTags(key GameKey, tags []string) error {
	return s.updateMeta(key, func(m *Meta) {
		m.Tags = append([]string(nil), tags...)
	})
}

// DeleteTags removes all tags for a key.
func (s *Store) DeleteTags(key GameKey) error {
	return s.updateMeta(key, func(m *Meta) {
		m.Tags = nil
	})
}

// SetLastResolved records the completion time of a resolution attempt.
func (s *Store) SetLastResolved(key GameKey, t time.Time) error {
	return s.updateMeta(key, func(m *Meta) {
		m.LastResolvedAt = t
	})
}

// metaLock returns the sidecar mutex for a key, creating it on first use.
func (s *Store) metaLock(key GameKey) *sync.Mutex {
	dir := key.Dir()
	if mu, ok := s.metaMu.Load(dir); ok {
		return mu
	}
	s.metaInit.Lock()
	defer s.metaInit.Unlock()
	if mu, ok := s.metaMu.Load(dir); ok {
		return mu
	}
	mu := &sync.Mutex{}
	s.metaMu.Store(dir, mu)
	return mu
}

// updateMeta applies fn to the sidecar and persists it atomically. The
// whole read-modify-write runs under the key's sidecar mutex, so no caller
// can persist a stale snapshot over another's update.
func (s *Store) updateMeta(key GameKey, fn func(*Meta)) error {
	mu := s.metaLock(key)
	mu.Lock()
	defer mu.Unlock()

	meta, err := s.Meta(key)
	if err != nil {
		return err
	}
	fn(&meta)

	dir := s.Dir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StoreError{Op: "create game dir", Key: key.Dir(), Err: err}
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &StoreError{Op: "encode sidecar", Key: key.Dir(), Err: err}
	}
	if err := atomicWrite(filepath.Join(dir, sidecarName), data); err != nil {
		return &StoreError{Op: "write sidecar", Key: key.Dir(), Err: err}
	}
	return nil
}

// atomicWrite writes data to a temp file in the target directory and
// renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
