package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectEmptyDir(t *testing.T) {
	ins := NewInspector(newTestStore(t))

	st, err := ins.Inspect(NewGameKey("Nothing", "NES"), DefaultPolicy())
	require.NoError(t, err)
	assert.Zero(t, st.Covers)
	assert.Zero(t, st.Screenshots)
	assert.False(t, st.HasDescription)
	assert.False(t, st.SatisfiesPolicy)
}

func TestInspectSatisfiedCache(t *testing.T) {
	s := newTestStore(t)
	ins := NewInspector(s)
	key := NewGameKey("Super Metroid", "SNES")

	_, err := s.SaveAsset(key, "cover_aa.jpg", []byte("x"), "rawg")
	require.NoError(t, err)
	for _, name := range []string{"screenshot_a.jpg", "screenshot_b.jpg", "screenshot_c.jpg", "screenshot_d.jpg"} {
		_, err := s.SaveAsset(key, name, []byte("x"), "rawg")
		require.NoError(t, err)
	}
	require.NoError(t, s.SetDescription(key, "A 2D action adventure.", false))

	st, err := ins.Inspect(key, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Covers)
	assert.Equal(t, 4, st.Screenshots)
	assert.True(t, st.HasDescription)
	assert.True(t, st.SatisfiesPolicy)
}

func TestInspectCountsAtMostOneCover(t *testing.T) {
	s := newTestStore(t)
	ins := NewInspector(s)
	key := NewGameKey("Contra", "NES")

	_, err := s.SaveAsset(key, "cover_aa.jpg", []byte("x"), "rawg")
	require.NoError(t, err)
	_, err = s.SaveAsset(key, "boxart_bb.jpg", []byte("x"), "gamesdb")
	require.NoError(t, err)
	require.NoError(t, s.SetDescription(key, "Run and gun.", false))

	st, err := ins.Inspect(key, Policy{Covers: 1, Screenshots: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Covers, "extra cover-named files count as screenshots")
	assert.Equal(t, 1, st.Screenshots)
	assert.True(t, st.SatisfiesPolicy)
}

func TestInspectSatisfiedWithoutDescription(t *testing.T) {
	s := newTestStore(t)
	ins := NewInspector(s)
	key := NewGameKey("Sin and Punishment", "N64")

	_, err := s.SaveAsset(key, "cover_aa.jpg", []byte("x"), "rawg")
	require.NoError(t, err)
	_, err = s.SaveAsset(key, "screenshot_a.jpg", []byte("x"), "rawg")
	require.NoError(t, err)

	st, err := ins.Inspect(key, Policy{Covers: 1, Screenshots: 1})
	require.NoError(t, err)
	assert.False(t, st.HasDescription)
	assert.True(t, st.SatisfiesPolicy, "completeness is judged on images alone")
}

func TestInspectMemoAndInvalidate(t *testing.T) {
	s := newTestStore(t)
	ins := NewInspector(s)
	key := NewGameKey("Gradius", "NES")

	st, err := ins.Inspect(key, DefaultPolicy())
	require.NoError(t, err)
	assert.Zero(t, st.Covers)

	_, err = s.SaveAsset(key, "cover_aa.jpg", []byte("x"), "rawg")
	require.NoError(t, err)

	// Stale until invalidated.
	st, err = ins.Inspect(key, DefaultPolicy())
	require.NoError(t, err)
	assert.Zero(t, st.Covers)

	ins.Invalidate(key)
	st, err = ins.Inspect(key, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Covers)
}

func TestInspectPartialCache(t *testing.T) {
	s := newTestStore(t)
	ins := NewInspector(s)
	key := NewGameKey("F-Zero", "SNES")

	_, err := s.SaveAsset(key, "cover_aa.jpg", []byte("x"), "rawg")
	require.NoError(t, err)
	_, err = s.SaveAsset(key, "screenshot_a.jpg", []byte("x"), "rawg")
	require.NoError(t, err)

	st, err := ins.Inspect(key, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Covers)
	assert.Equal(t, 1, st.Screenshots)
	assert.False(t, st.SatisfiesPolicy, "three screenshots short of policy")
}
