package mcp

import (
	"fmt"
	"strconv"
	"strings"
)

const passageScheme = "tafsir://"

// PassageURITemplate is the MCP resource template for single passages.
const PassageURITemplate = passageScheme + "{author}/{surah}/{ayah}"

// PassageURI addresses the commentary on one ayah as an MCP resource.
// Immutable value object; methods return copies.
type PassageURI struct {
	author   string
	surah    int
	ayah     int
	language string
}

// NewPassageURI creates a PassageURI.
func NewPassageURI(author string, surah, ayah int) PassageURI {
	return PassageURI{author: author, surah: surah, ayah: ayah}
}

// WithLanguage returns a copy with the target language set.
func (u PassageURI) WithLanguage(lang string) PassageURI {
	u.language = lang
	return u
}

// Author returns the tafsir author.
func (u PassageURI) Author() string { return u.author }

// Surah returns the surah number.
func (u PassageURI) Surah() int { return u.surah }

// Ayah returns the ayah number.
func (u PassageURI) Ayah() int { return u.ayah }

// Language returns the target language, or "".
func (u PassageURI) Language() string { return u.language }

// String builds the tafsir:// URI string.
func (u PassageURI) String() string {
	base := fmt.Sprintf("%s%s/%d/%d", passageScheme, u.author, u.surah, u.ayah)
	if u.language != "" {
		return base + "?language=" + u.language
	}
	return base
}

// ParsePassageURI parses a tafsir://author/surah/ayah[?language=xx] URI.
func ParsePassageURI(raw string) (PassageURI, error) {
	rest, ok := strings.CutPrefix(raw, passageScheme)
	if !ok {
		return PassageURI{}, fmt.Errorf("not a tafsir uri: %q", raw)
	}
	path, query, _ := strings.Cut(rest, "?")

	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] == "" {
		return PassageURI{}, fmt.Errorf("tafsir uri must be tafsir://author/surah/ayah: %q", raw)
	}
	surah, err := strconv.Atoi(parts[1])
	if err != nil {
		return PassageURI{}, fmt.Errorf("surah in %q: %w", raw, err)
	}
	ayah, err := strconv.Atoi(parts[2])
	if err != nil {
		return PassageURI{}, fmt.Errorf("ayah in %q: %w", raw, err)
	}

	u := NewPassageURI(parts[0], surah, ayah)
	if lang, ok := strings.CutPrefix(query, "language="); ok {
		u = u.WithLanguage(lang)
	}
	return u, nil
}
