package service

import (
	"time"

	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
)

// PassageRequest asks for the commentary on one ayah.
type PassageRequest struct {
	Author   string
	Surah    int
	Ayah     int
	Language string
}

// PassageResult is the passage covering the requested ayah, with its text in
// the requested language.
type PassageResult struct {
	Passage  passage.Passage
	Language language.Code
	Text     string
	Cached   bool
}

// SearchRequest is a free-text topic query. TopK zero means the default.
// QueryLanguage names the language the query is written in; when empty it is
// guessed from the text. Language selects the translation of each hit.
type SearchRequest struct {
	Query         string
	QueryLanguage string
	TopK          int
	Author        string
	Surah         int
	Language      string
}

// SearchHit is one ranked passage. Text is the source commentary;
// TranslatedText is set when a non-source language was requested.
type SearchHit struct {
	Passage        passage.Passage
	Score          float64
	Text           string
	TranslatedText string
}

// SearchResult holds ranked hits in descending score order. SourceQuery is
// the query as embedded, after translation into the corpus language.
type SearchResult struct {
	Query       string
	SourceQuery string
	Language    language.Code
	Hits        []SearchHit
}

// ReflectRequest asks for a reflection on an inclusive ayah range.
type ReflectRequest struct {
	Author   string
	Surah    int
	FromAyah int
	ToAyah   int
	Language string
}

// ReflectResult is a reflection together with the passages it draws on.
type ReflectResult struct {
	Author   string
	Surah    int
	FromAyah int
	ToAyah   int
	Language language.Code
	Text     string
	Passages []passage.Passage
	Cached   bool
}

// TranslateRequest asks for free text in a target language.
type TranslateRequest struct {
	Text     string
	Language string
}

// TranslateResult is translated text.
type TranslateResult struct {
	Text     string
	Language language.Code
	Cached   bool
}

// Status describes the service for health and status endpoints.
type Status struct {
	Index       IndexState
	Model       string
	Passages    int
	Indexed     int
	Error       string
	Since       time.Time
	Translation bool
	Reflection  bool
}
