package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStoreSaveAndList(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Super Metroid", "SNES")

	_, err := s.SaveAsset(key, "screenshot_aa11bb22.jpg", []byte("shot"), "rawg")
	require.NoError(t, err)
	_, err = s.SaveAsset(key, "cover_12345678.jpg", []byte("box"), "rawg")
	require.NoError(t, err)

	assets, err := s.ListAssets(key)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, "cover_12345678.jpg", assets[0].Filename)
	assert.Equal(t, CategoryCover, assets[0].Category)
	assert.Equal(t, "screenshot_aa11bb22.jpg", assets[1].Filename)
	assert.Equal(t, CategoryScreenshot, assets[1].Category)
	assert.Equal(t, "rawg", assets[0].SourceProvider)

	data, err := os.ReadFile(assets[0].StoredPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("box"), data)
}

func TestStoreSaveAssetIsImmutable(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Doom", "PC")

	_, err := s.SaveAsset(key, "cover_ab.jpg", []byte("first"), "rawg")
	require.NoError(t, err)
	_, err = s.SaveAsset(key, "cover_ab.jpg", []byte("second"), "gamesdb")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(s.Dir(key), "cover_ab.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data, "existing assets must not be overwritten")
}

func TestStoreListMissingDir(t *testing.T) {
	s := newTestStore(t)

	assets, err := s.ListAssets(NewGameKey("Unknown", "NES"))
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestStoreListIgnoresNonImages(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Ikaruga", "Dreamcast")

	_, err := s.SaveAsset(key, "cover_ff.jpg", []byte("x"), "rawg")
	require.NoError(t, err)
	require.NoError(t, s.SetTags(key, []string{"shmup"}))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(key), "notes.txt"), []byte("hi"), 0o644))

	assets, err := s.ListAssets(key)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "cover_ff.jpg", assets[0].Filename)
}

func TestStoreCoverPromotionWithoutCover(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Gradius", "NES")

	_, err := s.SaveAsset(key, "screenshot_bb.jpg", []byte("b"), "rawg")
	require.NoError(t, err)
	_, err = s.SaveAsset(key, "screenshot_aa.jpg", []byte("a"), "rawg")
	require.NoError(t, err)

	assets, err := s.ListAssets(key)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "screenshot_aa.jpg", assets[0].Filename)
	assert.Equal(t, CategoryCover, assets[0].Category, "first asset is promoted when no cover exists")
	assert.Equal(t, CategoryScreenshot, assets[1].Category)
}

func TestStoreSingleCoverInvariant(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Contra", "NES")

	_, err := s.SaveAsset(key, "cover_aa.jpg", []byte("a"), "rawg")
	require.NoError(t, err)
	_, err = s.SaveAsset(key, "boxart_bb.jpg", []byte("b"), "gamesdb")
	require.NoError(t, err)

	assets, err := s.ListAssets(key)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	covers := 0
	for _, a := range assets {
		if a.Category == CategoryCover {
			covers++
		}
	}
	assert.Equal(t, 1, covers, "at most one cover per game")
	assert.Equal(t, CategoryCover, assets[0].Category)
}

func TestStoreExplicitOrder(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("F-Zero", "SNES")

	for _, name := range []string{"cover_aa.jpg", "screenshot_bb.jpg", "screenshot_cc.jpg"} {
		_, err := s.SaveAsset(key, name, []byte("x"), "rawg")
		require.NoError(t, err)
	}
	require.NoError(t, s.SetOrder(key, []string{"screenshot_cc.jpg", "gone.jpg", "cover_aa.jpg"}))

	assets, err := s.ListAssets(key)
	require.NoError(t, err)
	require.Len(t, assets, 3)

	assert.Equal(t, "screenshot_cc.jpg", assets[0].Filename)
	assert.Equal(t, CategoryCover, assets[0].Category, "explicit order wins: index 0 is the cover")
	assert.Equal(t, "cover_aa.jpg", assets[1].Filename)
	assert.Equal(t, CategoryScreenshot, assets[1].Category)
	assert.Equal(t, "screenshot_bb.jpg", assets[2].Filename, "unordered files follow the ordered ones")
}

func TestStoreDeleteAsset(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Tetris", "GB")

	_, err := s.SaveAsset(key, "cover_aa.jpg", []byte("x"), "rawg")
	require.NoError(t, err)
	require.NoError(t, s.DeleteAsset(key, "cover_aa.jpg"))

	assets, err := s.ListAssets(key)
	require.NoError(t, err)
	assert.Empty(t, assets)

	meta, err := s.Meta(key)
	require.NoError(t, err)
	assert.NotContains(t, meta.Sources, "cover_aa.jpg")

	err = s.DeleteAsset(key, "cover_aa.jpg")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestStoreDescriptionAdminOverride(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Chrono Trigger", "SNES")

	require.NoError(t, s.SetDescription(key, "provider text", false))
	meta, err := s.Meta(key)
	require.NoError(t, err)
	assert.Equal(t, "provider text", meta.Description)
	assert.False(t, meta.DescriptionAdmin)

	require.NoError(t, s.SetDescription(key, "curated text", true))
	require.NoError(t, s.SetDescription(key, "late provider text", false))

	meta, err = s.Meta(key)
	require.NoError(t, err)
	assert.Equal(t, "curated text", meta.Description, "admin descriptions are never replaced by providers")
	assert.True(t, meta.DescriptionAdmin)

	require.NoError(t, s.DeleteDescription(key))
	meta, err = s.Meta(key)
	require.NoError(t, err)
	assert.Empty(t, meta.Description)
	assert.False(t, meta.DescriptionAdmin)
}

func TestStoreAdminDescriptionSurvivesConcurrentProviderWrites(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("Alien Soldier", "Megadrive")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = s.SetDescription(key, "provider text", false)
			_ = s.SetLastResolved(key, time.Now())
		}
	}()

	require.NoError(t, s.SetDescription(key, "curated text", true))
	<-done

	meta, err := s.Meta(key)
	require.NoError(t, err)
	assert.Equal(t, "curated text", meta.Description,
		"engine writes racing an admin write must not persist a stale sidecar")
	assert.True(t, meta.DescriptionAdmin)
}

func TestStoreTagsAndLastResolved(t *testing.T) {
	s := newTestStore(t)
	key := NewGameKey("EarthBound", "SNES")

	require.NoError(t, s.SetTags(key, []string{"rpg", "cult classic"}))
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetLastResolved(key, at))

	meta, err := s.Meta(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"rpg", "cult classic"}, meta.Tags)
	assert.True(t, meta.LastResolvedAt.Equal(at))

	require.NoError(t, s.DeleteTags(key))
	meta, err = s.Meta(key)
	require.NoError(t, err)
	assert.Empty(t, meta.Tags)
}

func TestStoreMetaMissing(t *testing.T) {
	s := newTestStore(t)

	meta, err := s.Meta(NewGameKey("Nothing", "NES"))
	require.NoError(t, err)
	assert.Empty(t, meta.Description)
	assert.Nil(t, meta.Order)
}
