package jsonapi

import (
	"fmt"

	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/domain/derived"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
)

// Resource types.
const (
	TypePassage     = "passage"
	TypeSearchHit   = "search_hit"
	TypeReflection  = "reflection"
	TypeTranslation = "translation"
	TypeStatus      = "status"
)

// PassageAttributes represents passage attributes in JSON:API format.
type PassageAttributes struct {
	Author           string   `json:"author"`
	Surah            int      `json:"surah"`
	AyahStart        int      `json:"ayah_start"`
	AyahEnd          int      `json:"ayah_end"`
	Language         string   `json:"language"`
	Text             string   `json:"text"`
	SurahNameEnglish string   `json:"surah_name_english,omitempty"`
	SurahNameArabic  string   `json:"surah_name_arabic,omitempty"`
	SourceURLs       []string `json:"source_urls,omitempty"`
	Cached           bool     `json:"cached"`
}

// SearchHitAttributes represents a ranked passage. Text is always the source
// commentary; TranslatedText is present when another language was requested.
type SearchHitAttributes struct {
	PassageAttributes
	Score          float64 `json:"score"`
	TranslatedText string  `json:"translated_text,omitempty"`
}

// ReflectionAttributes represents a reflection over an ayah range.
type ReflectionAttributes struct {
	Author   string `json:"author"`
	Surah    int    `json:"surah"`
	FromAyah int    `json:"from_ayah"`
	ToAyah   int    `json:"to_ayah"`
	Language string `json:"language"`
	Text     string `json:"text"`
	Cached   bool   `json:"cached"`
}

// TranslationAttributes represents translated free text.
type TranslationAttributes struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Cached   bool   `json:"cached"`
}

// StatusAttributes represents service readiness.
type StatusAttributes struct {
	Index       string    `json:"index"`
	Model       string    `json:"model,omitempty"`
	Passages    int       `json:"passages"`
	Indexed     int       `json:"indexed"`
	Error       string    `json:"error,omitempty"`
	Since       *DateTime `json:"since,omitempty"`
	Translation bool      `json:"translation"`
	Reflection  bool      `json:"reflection"`
}

func passageAttributes(p passage.Passage, lang, text string, cached bool) PassageAttributes {
	meta := p.Metadata()
	return PassageAttributes{
		Author:           p.Author(),
		Surah:            p.Surah(),
		AyahStart:        p.Ayahs().Start(),
		AyahEnd:          p.Ayahs().End(),
		Language:         lang,
		Text:             text,
		SurahNameEnglish: meta.SurahNameEnglish(),
		SurahNameArabic:  meta.SurahNameArabic(),
		SourceURLs:       meta.SourceURLs(),
		Cached:           cached,
	}
}

// PassageResource converts a point lookup result.
func PassageResource(res service.PassageResult) *Resource {
	return NewResource(TypePassage, res.Passage.ID(),
		passageAttributes(res.Passage, res.Language.String(), res.Text, res.Cached))
}

// SearchDocument converts search results into a list document.
func SearchDocument(res service.SearchResult) *Document {
	resources := make([]*Resource, len(res.Hits))
	for i, hit := range res.Hits {
		resources[i] = NewResource(TypeSearchHit, hit.Passage.ID(), SearchHitAttributes{
			PassageAttributes: passageAttributes(hit.Passage, language.Source.String(), hit.Text, false),
			Score:             hit.Score,
			TranslatedText:    hit.TranslatedText,
		})
	}
	return NewListResponse(resources).WithMeta(Meta{
		"query":        res.Query,
		"source_query": res.SourceQuery,
		"language":     res.Language.String(),
		"count":        len(resources),
	})
}

// ReflectionResource converts a reflection. The passages it draws on are
// exposed as relationships.
func ReflectionResource(res service.ReflectResult) *Resource {
	id := fmt.Sprintf("%s/%d/%d-%d/%s", res.Author, res.Surah, res.FromAyah, res.ToAyah, res.Language)
	r := NewResource(TypeReflection, id, ReflectionAttributes{
		Author:   res.Author,
		Surah:    res.Surah,
		FromAyah: res.FromAyah,
		ToAyah:   res.ToAyah,
		Language: res.Language.String(),
		Text:     res.Text,
		Cached:   res.Cached,
	})
	ids := make([]ResourceIdentifier, len(res.Passages))
	for i, p := range res.Passages {
		ids[i] = ResourceIdentifier{Type: TypePassage, ID: p.ID()}
	}
	r.Relationships = Relationships{"passages": {Data: ids}}
	return r
}

// TranslationResource converts translated text. The id is the cache name of
// the translation.
func TranslationResource(source string, res service.TranslateResult) *Resource {
	key := derived.ContentKey(derived.OperationTranslation, source, res.Language)
	return NewResource(TypeTranslation, key.Name(), TranslationAttributes{
		Language: res.Language.String(),
		Text:     res.Text,
		Cached:   res.Cached,
	})
}

// StatusResource converts service status.
func StatusResource(st service.Status) *Resource {
	attrs := StatusAttributes{
		Index:       string(st.Index),
		Model:       st.Model,
		Passages:    st.Passages,
		Indexed:     st.Indexed,
		Error:       st.Error,
		Translation: st.Translation,
		Reflection:  st.Reflection,
	}
	if !st.Since.IsZero() {
		attrs.Since = NewDateTime(st.Since).Ptr()
	}
	return NewResource(TypeStatus, "index", attrs)
}
