package media

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Inspector answers "is this game's cache complete?" without network I/O.
// Results are memoized per directory state; writers call Invalidate after
// changing a game's files.
type Inspector struct {
	store *Store
	memo  *gocache.Cache
}

// NewInspector wraps the store with a short-lived status memo.
func NewInspector(store *Store) *Inspector {
	return &Inspector{
		store: store,
		memo:  gocache.New(5*time.Minute, 10*time.Minute),
	}
}

type statusEntry struct {
	assets []ImageAsset
	meta   Meta
}

// Inspect reports the cache status of a key against a policy. It reads the
// game directory (or the memo) and counts categorized assets; at most one
// cover counts toward the policy.
func (ins *Inspector) Inspect(key GameKey, policy Policy) (CacheStatus, error) {
	entry, err := ins.snapshot(key)
	if err != nil {
		return CacheStatus{}, err
	}
	return statusOf(entry, policy), nil
}

// Assets returns the ordered assets and sidecar for a key, memoized.
func (ins *Inspector) Assets(key GameKey) ([]ImageAsset, Meta, error) {
	entry, err := ins.snapshot(key)
	if err != nil {
		return nil, Meta{}, err
	}
	return entry.assets, entry.meta, nil
}

// Invalidate drops the memoized state for a key. Call after any write to
// the key's directory.
func (ins *Inspector) Invalidate(key GameKey) {
	ins.memo.Delete(key.Dir())
}

// InvalidateAll drops every memoized entry. Used when the media root
// changes underneath us.
func (ins *Inspector) InvalidateAll() {
	ins.memo.Flush()
}

func (ins *Inspector) snapshot(key GameKey) (statusEntry, error) {
	dir := key.Dir()
	if cached, ok := ins.memo.Get(dir); ok {
		return cached.(statusEntry), nil
	}
	assets, err := ins.store.ListAssets(key)
	if err != nil {
		return statusEntry{}, err
	}
	meta, err := ins.store.Meta(key)
	if err != nil {
		return statusEntry{}, err
	}
	entry := statusEntry{assets: assets, meta: meta}
	ins.memo.SetDefault(dir, entry)
	return entry, nil
}

func statusOf(entry statusEntry, policy Policy) CacheStatus {
	var st CacheStatus
	for _, a := range entry.assets {
		switch a.Category {
		case CategoryCover:
			st.Covers++
		default:
			st.Screenshots++
		}
	}
	st.HasDescription = entry.meta.Description != ""
	// Completeness is about images only. A missing description is picked up
	// during a fetch walk but never forces one on its own.
	st.SatisfiesPolicy = st.Covers >= policy.Covers && st.Screenshots >= policy.Screenshots
	return st
}
