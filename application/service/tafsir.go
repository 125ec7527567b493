// Package service provides the application layer that composes passage
// lookup, vector search and the derived-content cache into the public
// operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/helixml/tafsir/domain/derived"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
	"github.com/helixml/tafsir/internal/config"
)

// Operation names used in errors and logs.
const (
	opEmbed     = "embed"
	opTranslate = "translate"
	opReflect   = "reflect"
)

// IndexProvider returns the index to search.
type IndexProvider interface {
	Index() (*search.Index, error)
	Status() IndexStatus
}

// TafsirOption configures a Tafsir service.
type TafsirOption func(*Tafsir)

// WithSearchConfig sets top-k limits.
func WithSearchConfig(cfg config.SearchConfig) TafsirOption {
	return func(t *Tafsir) {
		t.search = cfg
	}
}

// WithCallTimeout bounds each external call.
func WithCallTimeout(d time.Duration) TafsirOption {
	return func(t *Tafsir) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithParallelism bounds concurrent external calls across all requests.
func WithParallelism(n int) TafsirOption {
	return func(t *Tafsir) {
		if n > 0 {
			t.parallel = n
		}
	}
}

// WithTranslator sets the translator. Without one, only source-language
// text is served.
func WithTranslator(tr derived.Translator) TafsirOption {
	return func(t *Tafsir) {
		t.translator = tr
	}
}

// WithReflector sets the reflector. Without one, Reflect fails.
func WithReflector(r derived.Reflector) TafsirOption {
	return func(t *Tafsir) {
		t.reflector = r
	}
}

// WithEmbedder sets the query embedder. Without one, search is unavailable.
func WithEmbedder(e search.Embedder) TafsirOption {
	return func(t *Tafsir) {
		t.embedder = e
	}
}

// WithClosed shares the client's closed flag.
func WithClosed(closed *atomic.Bool) TafsirOption {
	return func(t *Tafsir) {
		t.closed = closed
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) TafsirOption {
	return func(t *Tafsir) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tafsir answers point, search, reflection and translation queries.
type Tafsir struct {
	corpus     passage.Collection
	indexes    IndexProvider
	cache      derived.Store
	embedder   search.Embedder
	translator derived.Translator
	reflector  derived.Reflector
	search     config.SearchConfig
	timeout    time.Duration
	parallel   int
	sem        *semaphore.Weighted
	flight     singleflight.Group
	closed     *atomic.Bool
	logger     *slog.Logger
}

// NewTafsir creates a Tafsir service.
func NewTafsir(corpus passage.Collection, indexes IndexProvider, cache derived.Store, opts ...TafsirOption) (*Tafsir, error) {
	if indexes == nil {
		return nil, fmt.Errorf("NewTafsir: nil index provider")
	}
	if cache == nil {
		return nil, fmt.Errorf("NewTafsir: nil cache")
	}
	t := &Tafsir{
		corpus:   corpus,
		indexes:  indexes,
		cache:    cache,
		search:   config.NewSearchConfig(),
		timeout:  config.DefaultEndpointTimeout,
		parallel: config.DefaultEndpointParallelTasks,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.sem = semaphore.NewWeighted(int64(t.parallel))
	return t, nil
}

// GetPassage returns the passage covering one ayah in the requested language.
func (t *Tafsir) GetPassage(ctx context.Context, req PassageRequest) (PassageResult, error) {
	if err := t.checkOpen(); err != nil {
		return PassageResult{}, err
	}
	lang, err := language.Parse(req.Language)
	if err != nil {
		return PassageResult{}, err
	}
	author := strings.TrimSpace(req.Author)
	if err := validateLocation(author, req.Surah); err != nil {
		return PassageResult{}, err
	}
	if req.Ayah < 1 {
		return PassageResult{}, invalid("ayah must be positive, got %d", req.Ayah)
	}

	p, err := passage.Find(t.corpus, author, req.Surah, req.Ayah)
	if err != nil {
		return PassageResult{}, err
	}
	if lang.IsSource() {
		return PassageResult{Passage: p, Language: lang, Text: p.Text()}, nil
	}

	key := derived.PointKey(derived.OperationTranslation, p.Author(), req.Surah, req.Ayah, lang)
	text, cached, err := t.derive(ctx, key, opTranslate, func(ctx context.Context) (string, error) {
		return t.translate(ctx, p.Text(), lang)
	})
	if err != nil {
		return PassageResult{}, err
	}
	return PassageResult{Passage: p, Language: lang, Text: text, Cached: cached}, nil
}

// SearchTopic ranks passages by similarity to a free-text query.
func (t *Tafsir) SearchTopic(ctx context.Context, req SearchRequest) (SearchResult, error) {
	if err := t.checkOpen(); err != nil {
		return SearchResult{}, err
	}
	lang, err := language.Parse(req.Language)
	if err != nil {
		return SearchResult{}, err
	}
	var queryLang language.Code
	if strings.TrimSpace(req.QueryLanguage) != "" {
		if queryLang, err = language.Parse(req.QueryLanguage); err != nil {
			return SearchResult{}, err
		}
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return SearchResult{}, invalid("query must not be empty")
	}
	k := req.TopK
	if k == 0 {
		k = t.search.DefaultTopK()
	}
	if k < 1 || k > t.search.MaxTopK() {
		return SearchResult{}, invalid("top_k must be between 1 and %d, got %d", t.search.MaxTopK(), req.TopK)
	}
	if req.Surah != 0 && (req.Surah < passage.MinSurah || req.Surah > passage.MaxSurah) {
		return SearchResult{}, invalid("surah must be between %d and %d, got %d", passage.MinSurah, passage.MaxSurah, req.Surah)
	}

	ix, err := t.indexes.Index()
	if err != nil {
		return SearchResult{}, err
	}
	if t.embedder == nil {
		return SearchResult{}, fmt.Errorf("%w: no embedding model configured", ErrIndexUnavailable)
	}

	sourceQuery := query
	if needsQueryTranslation(query, queryLang) {
		key := derived.ContentKey(derived.OperationTranslation, query, language.Source)
		sourceQuery, _, err = t.derive(ctx, key, opTranslate, func(ctx context.Context) (string, error) {
			return t.translate(ctx, query, language.Source)
		})
		if err != nil {
			return SearchResult{}, err
		}
	}

	vector, err := t.embedQuery(ctx, sourceQuery)
	if err != nil {
		return SearchResult{}, err
	}

	var filterOpts []search.FiltersOption
	if author := strings.TrimSpace(req.Author); author != "" {
		filterOpts = append(filterOpts, search.WithAuthor(author))
	}
	if req.Surah != 0 {
		filterOpts = append(filterOpts, search.WithSurah(req.Surah))
	}
	results, err := ix.Search(vector, k, search.NewFilters(filterOpts...))
	if err != nil {
		return SearchResult{}, fmt.Errorf("search index: %w", err)
	}

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{Passage: r.Passage(), Score: r.Score(), Text: r.Passage().Text()}
	}

	if !lang.IsSource() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(t.parallel)
		for i := range hits {
			p := hits[i].Passage
			g.Go(func() error {
				key := derived.RangeKey(derived.OperationTranslation, p.Author(), p.Surah(), p.Ayahs().Start(), p.Ayahs().End(), lang)
				text, _, err := t.derive(gctx, key, opTranslate, func(ctx context.Context) (string, error) {
					return t.translate(ctx, p.Text(), lang)
				})
				if err != nil {
					return err
				}
				hits[i].TranslatedText = text
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return SearchResult{}, err
		}
	}

	t.logger.DebugContext(ctx, "topic search",
		slog.String("query", query),
		slog.Int("top_k", k),
		slog.Int("hits", len(hits)),
	)
	return SearchResult{Query: query, SourceQuery: sourceQuery, Language: lang, Hits: hits}, nil
}

// needsQueryTranslation reports whether a query must be translated before
// it is embedded against the source-language index. Without a declared
// language, only text that reads as Arabic is embedded as is; Urdu and
// Persian share the script but not the language.
func needsQueryTranslation(query string, declared language.Code) bool {
	if declared != "" {
		return !declared.IsSource()
	}
	return !language.LooksArabic(query)
}

// Reflect writes, or returns the cached, reflection on an ayah range.
func (t *Tafsir) Reflect(ctx context.Context, req ReflectRequest) (ReflectResult, error) {
	if err := t.checkOpen(); err != nil {
		return ReflectResult{}, err
	}
	lang, err := language.Parse(req.Language)
	if err != nil {
		return ReflectResult{}, err
	}
	author := strings.TrimSpace(req.Author)
	if err := validateLocation(author, req.Surah); err != nil {
		return ReflectResult{}, err
	}
	if req.FromAyah < 1 {
		return ReflectResult{}, invalid("from_ayah must be positive, got %d", req.FromAyah)
	}
	if req.FromAyah > req.ToAyah {
		return ReflectResult{}, invalid("from_ayah %d is after to_ayah %d", req.FromAyah, req.ToAyah)
	}

	passages, err := passage.FindRange(t.corpus, author, req.Surah, req.FromAyah, req.ToAyah)
	if err != nil {
		return ReflectResult{}, err
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text()
	}
	combined := strings.Join(texts, "\n\n")

	key := derived.RangeKey(derived.OperationReflection, passages[0].Author(), req.Surah, req.FromAyah, req.ToAyah, lang)
	text, cached, err := t.derive(ctx, key, opReflect, func(ctx context.Context) (string, error) {
		if t.reflector == nil {
			return "", ErrNotConfigured
		}
		return t.reflector.Reflect(ctx, combined, lang)
	})
	if err != nil {
		return ReflectResult{}, err
	}

	return ReflectResult{
		Author:   passages[0].Author(),
		Surah:    req.Surah,
		FromAyah: req.FromAyah,
		ToAyah:   req.ToAyah,
		Language: lang,
		Text:     text,
		Passages: passages,
		Cached:   cached,
	}, nil
}

// Translate renders free text in the requested language.
func (t *Tafsir) Translate(ctx context.Context, req TranslateRequest) (TranslateResult, error) {
	if err := t.checkOpen(); err != nil {
		return TranslateResult{}, err
	}
	lang, err := language.Parse(req.Language)
	if err != nil {
		return TranslateResult{}, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return TranslateResult{}, invalid("text must not be empty")
	}
	if lang.IsSource() {
		return TranslateResult{Text: req.Text, Language: lang}, nil
	}

	key := derived.ContentKey(derived.OperationTranslation, req.Text, lang)
	text, cached, err := t.derive(ctx, key, opTranslate, func(ctx context.Context) (string, error) {
		return t.translate(ctx, req.Text, lang)
	})
	if err != nil {
		return TranslateResult{}, err
	}
	return TranslateResult{Text: text, Language: lang, Cached: cached}, nil
}

// Status reports index readiness and which model-backed operations are
// configured.
func (t *Tafsir) Status() Status {
	st := t.indexes.Status()
	out := Status{
		Index:       st.State,
		Model:       st.Model,
		Passages:    t.corpus.Len(),
		Indexed:     st.Passages,
		Since:       st.Since,
		Translation: t.translator != nil,
		Reflection:  t.reflector != nil,
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	return out
}

// derive returns the cached value for key, computing and storing it on a
// miss. Concurrent misses on one key share a single computation, which
// runs without the caller's cancellation.
func (t *Tafsir) derive(ctx context.Context, key derived.Key, operation string, compute func(context.Context) (string, error)) (string, bool, error) {
	value, err := t.cache.Get(ctx, key)
	switch {
	case err == nil:
		return value, true, nil
	case !errors.Is(err, derived.ErrMiss):
		t.logger.WarnContext(ctx, "cache read failed, treating as miss",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
	}

	ch := t.flight.DoChan(key.String(), func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		out, err := external(callCtx, t, operation, compute)
		if err != nil {
			return "", err
		}
		if err := t.cache.Put(callCtx, key, out); err != nil {
			t.logger.WarnContext(ctx, "cache write failed",
				slog.String("key", key.String()),
				slog.String("error", err.Error()),
			)
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return "", false, &ExternalServiceError{Operation: operation, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		return res.Val.(string), false, nil
	}
}

func (t *Tafsir) translate(ctx context.Context, text string, lang language.Code) (string, error) {
	if t.translator == nil {
		return "", ErrNotConfigured
	}
	return t.translator.Translate(ctx, text, lang)
}

func (t *Tafsir) embedQuery(ctx context.Context, query string) ([]float64, error) {
	vectors, err := external(ctx, t, opEmbed, func(ctx context.Context) ([][]float64, error) {
		return t.embedder.Embed(ctx, []string{query})
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, &ExternalServiceError{Operation: opEmbed, Err: fmt.Errorf("got %d vectors for 1 query", len(vectors))}
	}
	return vectors[0], nil
}

// external runs one model call under the shared concurrency limit and the
// per-call timeout. Every failure is reported as an ExternalServiceError.
func external[T any](ctx context.Context, t *Tafsir, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return zero, &ExternalServiceError{Operation: operation, Err: err}
	}
	defer t.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	out, err := fn(callCtx)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", t.timeout, err)
		}
		t.logger.ErrorContext(ctx, "external call failed",
			slog.String("operation", operation),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return zero, &ExternalServiceError{Operation: operation, Err: err}
	}
	return out, nil
}

func (t *Tafsir) checkOpen() error {
	if t.closed != nil && t.closed.Load() {
		return ErrClientClosed
	}
	return nil
}

func validateLocation(author string, surah int) error {
	if author == "" {
		return invalid("author must not be empty")
	}
	if surah < passage.MinSurah || surah > passage.MaxSurah {
		return invalid("surah must be between %d and %d, got %d", passage.MinSurah, passage.MaxSurah, surah)
	}
	return nil
}
