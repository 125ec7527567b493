package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helixml/tafsir/domain/derived"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
	"github.com/helixml/tafsir/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// keywordEmbedder places texts along one axis per keyword.
type keywordEmbedder struct {
	calls atomic.Int32
}

var keywords = []string{"صبر", "شكر", "صلاة"}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.calls.Add(1)
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, len(keywords)+1)
		for j, kw := range keywords {
			vec[j] = float64(strings.Count(text, kw))
		}
		vec[len(keywords)] = 0.01
		out[i] = vec
	}
	return out, nil
}

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	putErr error
	getErr error
	puts   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key derived.Key) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key.String()]
	if !ok {
		return "", derived.ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Put(_ context.Context, key derived.Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.values[key.String()] = value
	return nil
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// fakeModel translates by prefixing the language code, and maps known
// English queries to Arabic.
type fakeModel struct {
	translations atomic.Int32
	reflections  atomic.Int32
	delay        time.Duration
	err          error
	lastReflect  atomic.Value
}

var arabicQueries = map[string]string{
	"patience":  "الصبر",
	"gratitude": "الشكر",
}

func (f *fakeModel) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.delay):
		return nil
	}
}

func (f *fakeModel) Translate(ctx context.Context, text string, target language.Code) (string, error) {
	f.translations.Add(1)
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	if target == language.Arabic {
		if ar, ok := arabicQueries[text]; ok {
			return ar, nil
		}
	}
	return fmt.Sprintf("[%s] %s", target, text), nil
}

func (f *fakeModel) Reflect(ctx context.Context, text string, target language.Code) (string, error) {
	f.reflections.Add(1)
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	f.lastReflect.Store(text)
	return fmt.Sprintf("reflection(%s)", target), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPassage(t *testing.T, author string, surah, start, end int, text string) passage.Passage {
	t.Helper()
	r, err := passage.NewRange(start, end)
	require.NoError(t, err)
	p, err := passage.New(author, surah, r, text, passage.NewMetadata("Al-Baqarah", "البقرة", nil))
	require.NoError(t, err)
	return p
}

func testCorpus(t *testing.T) passage.Collection {
	t.Helper()
	return passage.NewCollection([]passage.Passage{
		newPassage(t, "ibn-katheer", 2, 1, 5, "في الصبر على البلاء"),
		newPassage(t, "ibn-katheer", 2, 6, 9, "في الشكر على النعم"),
		newPassage(t, "al-tabari", 2, 1, 3, "الصبر مفتاح الفرج"),
	})
}

type fixture struct {
	corpus passage.Collection
	holder *IndexHolder
	store  *memoryStore
	model  *fakeModel
	emb    *keywordEmbedder
	svc    *Tafsir
}

func newFixture(t *testing.T, opts ...TafsirOption) *fixture {
	t.Helper()
	f := &fixture{
		corpus: testCorpus(t),
		holder: NewIndexHolder("keywords"),
		store:  newMemoryStore(),
		model:  &fakeModel{},
		emb:    &keywordEmbedder{},
	}
	base := []TafsirOption{
		WithEmbedder(f.emb),
		WithTranslator(f.model),
		WithReflector(f.model),
		WithLogger(discardLogger()),
	}
	svc, err := NewTafsir(f.corpus, f.holder, f.store, append(base, opts...)...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) publish(t *testing.T) {
	t.Helper()
	ix, err := search.Build(context.Background(), f.corpus.All(), f.emb)
	require.NoError(t, err)
	f.holder.Publish(ix)
	f.emb.calls.Store(0)
}

// --- point lookup ---

func TestTafsir_GetPassage_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.GetPassage(ctx, PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "ar"})
	require.NoError(t, err)
	require.Equal(t, "في الصبر على البلاء", res.Text)
	require.Equal(t, language.Arabic, res.Language)
	require.Equal(t, 1, res.Passage.Ayahs().Start())
	require.Equal(t, 5, res.Passage.Ayahs().End())

	_, err = f.svc.GetPassage(ctx, PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "xx"})
	require.ErrorIs(t, err, language.ErrUnsupported)

	_, err = f.svc.GetPassage(ctx, PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 99, Language: "ar"})
	require.ErrorIs(t, err, passage.ErrNotFound)
	require.ErrorIs(t, err, passage.ErrAyahNotFound)

	_, err = f.svc.GetPassage(ctx, PassageRequest{Author: "ibn-katheer", Surah: 3, Ayah: 1})
	require.ErrorIs(t, err, passage.ErrSurahNotFound)

	require.Zero(t, f.model.translations.Load())
}

func TestTafsir_GetPassage_RangeBoundaries(t *testing.T) {
	f := newFixture(t)
	for ayah, start := range map[int]int{5: 1, 6: 6, 9: 6} {
		res, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: ayah})
		require.NoError(t, err)
		require.Equal(t, start, res.Passage.Ayahs().Start(), "ayah %d", ayah)
	}
	_, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 10})
	require.ErrorIs(t, err, passage.ErrNotFound)
}

func TestTafsir_GetPassage_Validation(t *testing.T) {
	f := newFixture(t)
	cases := []PassageRequest{
		{Author: "", Surah: 2, Ayah: 1},
		{Author: "ibn-katheer", Surah: 0, Ayah: 1},
		{Author: "ibn-katheer", Surah: 115, Ayah: 1},
		{Author: "ibn-katheer", Surah: 2, Ayah: 0},
	}
	for _, req := range cases {
		_, err := f.svc.GetPassage(context.Background(), req)
		require.ErrorIs(t, err, ErrInvalidRequest, "%+v", req)
	}
}

func TestTafsir_GetPassage_TranslatesAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "en"}

	first, err := f.svc.GetPassage(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "[en] في الصبر على البلاء", first.Text)
	require.False(t, first.Cached)

	second, err := f.svc.GetPassage(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.Text, second.Text)
	require.True(t, second.Cached)
	require.Equal(t, int32(1), f.model.translations.Load())

	cached, err := f.store.Get(ctx, derived.PointKey(derived.OperationTranslation, "ibn-katheer", 2, 3, language.English))
	require.NoError(t, err)
	require.Equal(t, first.Text, cached)
}

func TestTafsir_GetPassage_CachedTranslationMakesNoCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := derived.PointKey(derived.OperationTranslation, "ibn-katheer", 2, 4, language.Urdu)
	require.NoError(t, f.store.Put(ctx, key, "صبر کے بارے میں"))

	res, err := f.svc.GetPassage(ctx, PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 4, Language: "ur"})
	require.NoError(t, err)
	require.Equal(t, "صبر کے بارے میں", res.Text)
	require.True(t, res.Cached)
	require.Zero(t, f.model.translations.Load())
}

func TestTafsir_GetPassage_TranslatorFailureLeavesCacheEmpty(t *testing.T) {
	f := newFixture(t)
	f.model.err = errors.New("upstream 503")

	_, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "fr"})
	require.ErrorIs(t, err, ErrExternalService)
	var extErr *ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	require.Equal(t, "translate", extErr.Operation)
	require.Zero(t, f.store.len())
}

func TestTafsir_GetPassage_CacheWriteFailureStillReturns(t *testing.T) {
	f := newFixture(t)
	f.store.putErr = errors.New("disk full")

	res, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "de"})
	require.NoError(t, err)
	require.Equal(t, "[de] في الصبر على البلاء", res.Text)
	require.Equal(t, 1, f.store.puts)
}

func TestTafsir_GetPassage_CacheReadFailureIsAMiss(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = errors.New("permission denied")

	res, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "en"})
	require.NoError(t, err)
	require.False(t, res.Cached)
	require.Equal(t, int32(1), f.model.translations.Load())
}

func TestTafsir_GetPassage_NoTranslator(t *testing.T) {
	f := newFixture(t, WithTranslator(nil))

	_, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "en"})
	require.ErrorIs(t, err, ErrExternalService)
	require.ErrorIs(t, err, ErrNotConfigured)

	res, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3})
	require.NoError(t, err)
	require.NotEmpty(t, res.Text)
}

func TestTafsir_ConcurrentMissesShareOneCall(t *testing.T) {
	f := newFixture(t)
	f.model.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			_, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 7, Language: "en"})
			assert.NoError(t, err)
		})
	}
	wg.Wait()
	require.Equal(t, int32(1), f.model.translations.Load())
}

func TestTafsir_CallTimeout(t *testing.T) {
	f := newFixture(t, WithCallTimeout(20*time.Millisecond))
	f.model.delay = time.Second

	start := time.Now()
	_, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3, Language: "en"})
	require.ErrorIs(t, err, ErrExternalService)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTafsir_ClosedClient(t *testing.T) {
	closed := &atomic.Bool{}
	f := newFixture(t, WithClosed(closed))
	closed.Store(true)

	_, err := f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 3})
	require.ErrorIs(t, err, ErrClientClosed)
	_, err = f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر"})
	require.ErrorIs(t, err, ErrClientClosed)
}

// --- topic search ---

func TestTafsir_SearchTopic_IndexWarming(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر"})
	require.ErrorIs(t, err, ErrIndexUnavailable)

	// Point lookups are served while search is unavailable.
	_, err = f.svc.GetPassage(context.Background(), PassageRequest{Author: "ibn-katheer", Surah: 2, Ayah: 1})
	require.NoError(t, err)
}

func TestTafsir_SearchTopic_ArabicQuery(t *testing.T) {
	f := newFixture(t)
	f.publish(t)

	res, err := f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الشكر", TopK: 1})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.Equal(t, "ibn-katheer/2/6-9", res.Hits[0].Passage.ID())
	require.InDelta(t, 1.0, res.Hits[0].Score, 0.01)
	require.Equal(t, "الشكر", res.SourceQuery)
	require.Zero(t, f.model.translations.Load())
}

func TestTafsir_SearchTopic_DefaultTopKAndOrder(t *testing.T) {
	f := newFixture(t)
	f.publish(t)

	res, err := f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 3)
	for i := 1; i < len(res.Hits); i++ {
		require.GreaterOrEqual(t, res.Hits[i-1].Score, res.Hits[i].Score)
	}
}

func TestTafsir_SearchTopic_TranslatesQueryOnce(t *testing.T) {
	f := newFixture(t)
	f.publish(t)
	ctx := context.Background()

	res, err := f.svc.SearchTopic(ctx, SearchRequest{Query: "patience", TopK: 2})
	require.NoError(t, err)
	require.Equal(t, "الصبر", res.SourceQuery)
	require.Equal(t, int32(1), f.model.translations.Load())

	_, err = f.svc.SearchTopic(ctx, SearchRequest{Query: "patience", TopK: 2})
	require.NoError(t, err)
	require.Equal(t, int32(1), f.model.translations.Load())

	cached, err := f.store.Get(ctx, derived.ContentKey(derived.OperationTranslation, "patience", language.Arabic))
	require.NoError(t, err)
	require.Equal(t, "الصبر", cached)
}

func TestTafsir_SearchTopic_SourceLanguageLeavesTranslationEmpty(t *testing.T) {
	f := newFixture(t)
	f.publish(t)

	res, err := f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر", TopK: 2})
	require.NoError(t, err)
	for _, h := range res.Hits {
		require.Equal(t, h.Passage.Text(), h.Text)
		require.Empty(t, h.TranslatedText)
	}
}

func TestTafsir_SearchTopic_TranslatesUrduQuery(t *testing.T) {
	f := newFixture(t)
	f.publish(t)
	ctx := context.Background()

	query := "صبر کے بارے میں بتائیں"
	res, err := f.svc.SearchTopic(ctx, SearchRequest{Query: query, TopK: 1})
	require.NoError(t, err)
	require.Equal(t, int32(1), f.model.translations.Load())
	require.Equal(t, "[ar] "+query, res.SourceQuery)
	require.Len(t, res.Hits, 1)
	require.Contains(t, res.Hits[0].Text, "الصبر")

	_, err = f.store.Get(ctx, derived.ContentKey(derived.OperationTranslation, query, language.Arabic))
	require.NoError(t, err)
}

func TestTafsir_SearchTopic_DeclaredQueryLanguage(t *testing.T) {
	f := newFixture(t)
	f.publish(t)
	ctx := context.Background()

	res, err := f.svc.SearchTopic(ctx, SearchRequest{Query: "صبر", QueryLanguage: "ur", TopK: 1})
	require.NoError(t, err)
	require.Equal(t, "[ar] صبر", res.SourceQuery)
	require.Equal(t, int32(1), f.model.translations.Load())

	res, err = f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", QueryLanguage: "ar", TopK: 1})
	require.NoError(t, err)
	require.Equal(t, "الصبر", res.SourceQuery)
	require.Equal(t, int32(1), f.model.translations.Load())

	_, err = f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", QueryLanguage: "xx"})
	require.ErrorIs(t, err, language.ErrUnsupported)
}

func TestTafsir_SearchTopic_AuthorFilter(t *testing.T) {
	f := newFixture(t)
	f.publish(t)

	res, err := f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر", TopK: 5, Author: "Ibn-Katheer"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	for _, h := range res.Hits {
		require.Equal(t, "ibn-katheer", h.Passage.Author())
	}
}

func TestTafsir_SearchTopic_SurahFilterNoMatches(t *testing.T) {
	f := newFixture(t)
	f.publish(t)

	res, err := f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر", Surah: 3})
	require.NoError(t, err)
	require.Empty(t, res.Hits)
}

func TestTafsir_SearchTopic_TranslatesHits(t *testing.T) {
	f := newFixture(t)
	f.publish(t)
	ctx := context.Background()

	res, err := f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", TopK: 3, Language: "en"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 3)
	for _, h := range res.Hits {
		require.Equal(t, h.Passage.Text(), h.Text)
		require.Equal(t, "[en] "+h.Passage.Text(), h.TranslatedText)
	}
	require.Equal(t, int32(3), f.model.translations.Load())

	p := res.Hits[0].Passage
	key := derived.RangeKey(derived.OperationTranslation, p.Author(), p.Surah(), p.Ayahs().Start(), p.Ayahs().End(), language.English)
	_, err = f.store.Get(ctx, key)
	require.NoError(t, err)

	_, err = f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", TopK: 3, Language: "en"})
	require.NoError(t, err)
	require.Equal(t, int32(3), f.model.translations.Load())
}

func TestTafsir_SearchTopic_Validation(t *testing.T) {
	f := newFixture(t)
	f.publish(t)
	ctx := context.Background()

	for _, k := range []int{-1, 11} {
		_, err := f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", TopK: k})
		require.ErrorIs(t, err, ErrInvalidRequest, "top_k %d", k)
	}
	_, err := f.svc.SearchTopic(ctx, SearchRequest{Query: "  "})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", Surah: 200})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", Language: "xx"})
	require.ErrorIs(t, err, language.ErrUnsupported)

	res, err := f.svc.SearchTopic(ctx, SearchRequest{Query: "الصبر", TopK: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 3)
}

func TestTafsir_SearchTopic_CustomLimits(t *testing.T) {
	f := newFixture(t, WithSearchConfig(config.NewSearchConfig().WithDefaultTopK(1).WithMaxTopK(2)))
	f.publish(t)

	res, err := f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)

	_, err = f.svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر", TopK: 3})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTafsir_SearchTopic_NoEmbedder(t *testing.T) {
	f := newFixture(t)
	f.publish(t)
	svc, err := NewTafsir(f.corpus, f.holder, f.store, WithLogger(discardLogger()))
	require.NoError(t, err)

	_, err = svc.SearchTopic(context.Background(), SearchRequest{Query: "الصبر"})
	require.ErrorIs(t, err, ErrIndexUnavailable)
}

// --- reflection ---

func TestTafsir_Reflect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := ReflectRequest{Author: "ibn-katheer", Surah: 2, FromAyah: 4, ToAyah: 7, Language: "en"}

	res, err := f.svc.Reflect(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "reflection(en)", res.Text)
	require.Len(t, res.Passages, 2)
	require.False(t, res.Cached)
	require.Equal(t, "في الصبر على البلاء\n\nفي الشكر على النعم", f.model.lastReflect.Load())

	again, err := f.svc.Reflect(ctx, req)
	require.NoError(t, err)
	require.True(t, again.Cached)
	require.Equal(t, int32(1), f.model.reflections.Load())

	_, err = f.store.Get(ctx, derived.RangeKey(derived.OperationReflection, "ibn-katheer", 2, 4, 7, language.English))
	require.NoError(t, err)
}

func TestTafsir_Reflect_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reflect(ctx, ReflectRequest{Author: "ibn-katheer", Surah: 2, FromAyah: 7, ToAyah: 4})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Reflect(ctx, ReflectRequest{Author: "ibn-katheer", Surah: 2, FromAyah: 0, ToAyah: 4})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Reflect(ctx, ReflectRequest{Author: "ibn-katheer", Surah: 2, FromAyah: 50, ToAyah: 60})
	require.ErrorIs(t, err, passage.ErrNotFound)

	_, err = f.svc.Reflect(ctx, ReflectRequest{Author: "ibn-katheer", Surah: 2, FromAyah: 1, ToAyah: 2, Language: "xx"})
	require.ErrorIs(t, err, language.ErrUnsupported)

	require.Zero(t, f.model.reflections.Load())
}

func TestTafsir_Reflect_NoReflector(t *testing.T) {
	f := newFixture(t, WithReflector(nil))

	_, err := f.svc.Reflect(context.Background(), ReflectRequest{Author: "ibn-katheer", Surah: 2, FromAyah: 1, ToAyah: 2})
	require.ErrorIs(t, err, ErrExternalService)
	require.ErrorIs(t, err, ErrNotConfigured)
}

// --- translation ---

func TestTafsir_Translate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Translate(ctx, TranslateRequest{Text: "بسم الله", Language: "ar"})
	require.NoError(t, err)
	require.Equal(t, "بسم الله", res.Text)
	require.Zero(t, f.model.translations.Load())

	res, err = f.svc.Translate(ctx, TranslateRequest{Text: "بسم الله", Language: "en"})
	require.NoError(t, err)
	require.Equal(t, "[en] بسم الله", res.Text)
	require.False(t, res.Cached)

	res, err = f.svc.Translate(ctx, TranslateRequest{Text: "بسم الله", Language: "en"})
	require.NoError(t, err)
	require.True(t, res.Cached)
	require.Equal(t, int32(1), f.model.translations.Load())

	_, err = f.svc.Translate(ctx, TranslateRequest{Text: "", Language: "en"})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

// --- status ---

func TestTafsir_Status(t *testing.T) {
	f := newFixture(t, WithReflector(nil))

	st := f.svc.Status()
	require.Equal(t, IndexWarming, st.Index)
	require.Equal(t, 3, st.Passages)
	require.Zero(t, st.Indexed)
	require.Equal(t, "keywords", st.Model)
	require.True(t, st.Translation)
	require.False(t, st.Reflection)

	f.publish(t)
	st = f.svc.Status()
	require.Equal(t, IndexReady, st.Index)
	require.Equal(t, 3, st.Indexed)
}

func TestNewTafsir_RequiresDependencies(t *testing.T) {
	_, err := NewTafsir(passage.Collection{}, nil, newMemoryStore())
	require.Error(t, err)
	_, err = NewTafsir(passage.Collection{}, NewIndexHolder("m"), nil)
	require.Error(t, err)
}
