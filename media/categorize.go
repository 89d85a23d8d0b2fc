package media

import "strings"

// coverTokens are filename prefixes that mark an image as cover art, in
// match order. Providers and the engine itself name files with these
// prefixes, so write-time labeling and later re-inspection always agree.
var coverTokens = []string{
	"cover_",
	"boxart_",
	"background_",
	"poster_",
	"artwork_",
}

// Categorize classifies an image filename as cover or screenshot. It is
// pure and deterministic: unmatched filenames default to screenshot.
func Categorize(filename string) Category {
	name := strings.ToLower(filename)
	for _, tok := range coverTokens {
		if strings.HasPrefix(name, tok) {
			return CategoryCover
		}
	}
	return CategoryScreenshot
}

// imageExtensions are the file types the store recognizes as images.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// IsImageFile reports whether the filename has a recognized image extension.
func IsImageFile(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return false
	}
	_, ok := imageExtensions[strings.ToLower(filename[idx:])]
	return ok
}
