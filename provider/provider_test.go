package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashName(t *testing.T) {
	a := HashName("cover_", "https://cdn.example.com/box.jpg")
	b := HashName("cover_", "https://cdn.example.com/box.jpg")
	c := HashName("cover_", "https://cdn.example.com/other.jpg")

	assert.Equal(t, a, b, "same URL always hashes to the same name")
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^cover_[0-9a-f]{8}\.jpg$`, a)
}

func TestStripHTML(t *testing.T) {
	in := "<p>A classic &amp; beloved game.</p>\n<br/>  It   holds up."
	assert.Equal(t, "A classic & beloved game. It holds up.", StripHTML(in))
	assert.Equal(t, "", StripHTML("<div></div>"))
}

func TestClampSentences(t *testing.T) {
	text := "First sentence. Second one! Third? Fourth."

	assert.Equal(t, "First sentence.", ClampSentences(text, 1))
	assert.Equal(t, "First sentence. Second one! Third?", ClampSentences(text, 3))
	assert.Equal(t, text, ClampSentences(text, 10), "short text passes through")
	assert.Equal(t, "", ClampSentences(text, 0))
}

func TestClampSentencesIgnoresDecimals(t *testing.T) {
	text := "Rated 9.5 out of 10. A must play."
	assert.Equal(t, "Rated 9.5 out of 10.", ClampSentences(text, 1))
}

func TestDownloadImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegdata"))
	}))
	defer srv.Close()

	data, err := DownloadImage(context.Background(), NewHTTPClient(2*time.Second), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), data)
}

func TestDownloadImageRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not found</html>"))
	}))
	defer srv.Close()

	_, err := DownloadImage(context.Background(), NewHTTPClient(2*time.Second), srv.URL)
	assert.Error(t, err)
}

func TestDownloadImageRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := DownloadImage(context.Background(), NewHTTPClient(2*time.Second), srv.URL)
	assert.Error(t, err)
}
