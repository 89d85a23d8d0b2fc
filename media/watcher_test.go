package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherInvalidatesOnExternalWrite(t *testing.T) {
	s := newTestStore(t)
	ins := NewInspector(s)
	key := NewGameKey("Gradius", "NES")

	_, err := s.SaveAsset(key, "cover_aa.jpg", []byte("x"), "rawg")
	require.NoError(t, err)

	w, err := NewWatcher(s, ins)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Prime the memo, then change the directory behind the engine's back.
	st, err := ins.Inspect(key, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, 1, st.Covers)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(key), "screenshot_zz.jpg"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		st, err := ins.Inspect(key, DefaultPolicy())
		return err == nil && st.Screenshots == 1
	}, 3*time.Second, 20*time.Millisecond, "external write should invalidate the memo")
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	s := newTestStore(t)
	ins := NewInspector(s)

	w, err := NewWatcher(s, ins)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	key := NewGameKey("New Game", "NES")
	st, err := ins.Inspect(key, DefaultPolicy())
	require.NoError(t, err)
	require.Zero(t, st.Covers)

	require.NoError(t, os.MkdirAll(s.Dir(key), 0o755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(key), "cover_aa.jpg"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		st, err := ins.Inspect(key, DefaultPolicy())
		return err == nil && st.Covers == 1
	}, 3*time.Second, 20*time.Millisecond)
}
