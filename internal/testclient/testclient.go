// Package testclient builds a fully wired tafsir Client over a small fixed
// corpus with deterministic fake models, for API and CLI tests.
package testclient

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/helixml/tafsir"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
	tafsirlog "github.com/helixml/tafsir/internal/log"
)

// EmbeddingModel is the model id recorded in snapshots built by New.
const EmbeddingModel = "keyword-test"

// Passages returns the fixture corpus: two ibn-katheer passages on al-Baqarah
// about patience and gratitude, and one al-tabari passage on patience.
func Passages(t *testing.T) []passage.Passage {
	t.Helper()
	meta := passage.NewMetadata("Al-Baqarah", "البقرة", []string{"https://example.org/2"})
	specs := []struct {
		author     string
		start, end int
		text       string
	}{
		{"ibn-katheer", 1, 5, "في الصبر على البلاء"},
		{"ibn-katheer", 6, 9, "في الشكر على النعم"},
		{"al-tabari", 1, 3, "الصبر مفتاح الفرج"},
	}
	out := make([]passage.Passage, 0, len(specs))
	for _, s := range specs {
		r, err := passage.NewRange(s.start, s.end)
		if err != nil {
			t.Fatalf("testclient: range: %v", err)
		}
		p, err := passage.New(s.author, 2, r, s.text, meta)
		if err != nil {
			t.Fatalf("testclient: passage: %v", err)
		}
		out = append(out, p)
	}
	return out
}

// KeywordEmbedder maps text onto one axis per keyword, so texts sharing a
// keyword are close.
type KeywordEmbedder struct {
	Calls atomic.Int32
}

var keywords = []string{"صبر", "شكر", "صلاة"}

// Embed implements search.Embedder.
func (e *KeywordEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.Calls.Add(1)
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v := make([]float64, len(keywords)+1)
		for j, k := range keywords {
			if strings.Contains(text, k) {
				v[j] = 1
			}
		}
		v[len(keywords)] = 0.01
		out[i] = v
	}
	return out, nil
}

// Model is a fake translator and reflector. English patience and gratitude
// translate to their Arabic keywords; anything else is tagged with the
// target language.
type Model struct {
	Translations atomic.Int32
	Reflections  atomic.Int32
	Err          error
}

// Translate implements derived.Translator.
func (m *Model) Translate(_ context.Context, text string, target language.Code) (string, error) {
	m.Translations.Add(1)
	if m.Err != nil {
		return "", m.Err
	}
	if target.IsSource() {
		switch {
		case strings.Contains(strings.ToLower(text), "patience"):
			return "الصبر", nil
		case strings.Contains(strings.ToLower(text), "gratitude"):
			return "الشكر", nil
		}
	}
	return fmt.Sprintf("[%s] %s", target, text), nil
}

// Reflect implements derived.Reflector.
func (m *Model) Reflect(_ context.Context, text string, target language.Code) (string, error) {
	m.Reflections.Add(1)
	if m.Err != nil {
		return "", m.Err
	}
	return fmt.Sprintf("reflection (%s) on %d chars", target, len([]rune(text))), nil
}

// New creates a Client over Passages with the fake embedder and Model,
// storing state under a temp dir. The index is built before returning.
// Extra options are applied last.
func New(t *testing.T, model *Model, opts ...tafsir.Option) *tafsir.Client {
	t.Helper()
	if model == nil {
		model = &Model{}
	}
	base := []tafsir.Option{
		tafsir.WithDataDir(t.TempDir()),
		tafsir.WithCorpus(Passages(t)),
		tafsir.WithEmbedder(&KeywordEmbedder{}, EmbeddingModel),
		tafsir.WithTranslator(model),
		tafsir.WithReflector(model),
		tafsir.WithLogger(tafsirlog.Discard()),
	}
	client, err := tafsir.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("testclient: create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.BuildIndex(context.Background(), false); err != nil {
		t.Fatalf("testclient: build index: %v", err)
	}
	return client
}
