package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected Category
	}{
		{"cover prefix", "cover_1a2b3c4d.jpg", CategoryCover},
		{"boxart prefix", "boxart_front_9f8e7d6c.jpg", CategoryCover},
		{"background prefix", "background_12ab34cd.jpg", CategoryCover},
		{"poster prefix", "poster_art.png", CategoryCover},
		{"artwork prefix", "artwork_main.webp", CategoryCover},
		{"screenshot prefix", "screenshot_5e6f7a8b.jpg", CategoryScreenshot},
		{"uppercase cover", "COVER_abc.jpg", CategoryCover},
		{"unmatched defaults to screenshot", "1234-gameplay.png", CategoryScreenshot},
		{"token not at start", "my_cover_art.jpg", CategoryScreenshot},
		{"empty", "", CategoryScreenshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.filename))
		})
	}
}

func TestCategorize_Stable(t *testing.T) {
	// Same input always yields the same category.
	for range 100 {
		assert.Equal(t, CategoryCover, Categorize("background_x.jpg"))
		assert.Equal(t, CategoryScreenshot, Categorize("shot1.png"))
	}
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"a.jpg", true},
		{"a.JPEG", true},
		{"a.png", true},
		{"a.gif", true},
		{"a.webp", true},
		{"metadata.json", false},
		{"noext", false},
		{"archive.tar.gz", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsImageFile(tt.filename), tt.filename)
	}
}

func TestGameKey_Dir(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Super Mario Bros", "Super_Mario_Bros"},
		{"Kirby's Adventure", "Kirbys_Adventure"},
		{"R-Type III", "R-Type_III"},
		{"Mario & Luigi: Superstar Saga", "Mario__Luigi_Superstar_Saga"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		key := NewGameKey(tt.title, "")
		assert.Equal(t, tt.expected, key.Dir(), tt.title)
	}
}

func TestGameKey_String(t *testing.T) {
	assert.Equal(t, "Super Metroid (SNES)", NewGameKey("Super Metroid", "SNES").String())
	assert.Equal(t, "Super Metroid", NewGameKey("Super Metroid", "").String())
}
