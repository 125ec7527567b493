// Package corpus loads tafsir passages from the ingestion output directory.
//
// The layout is <dir>/<author>/<surah>.json (or .yaml/.yml). Each file holds
// a list of entries:
//
//	[{"author": "ibn-katheer", "surah_number": 2, "ayah_range": [1, 5],
//	  "tafsir_text": "...", "surah_name_english": "Al-Baqarah",
//	  "surah_name_arabic": "البقرة", "source_urls": ["..."]}]
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/helixml/tafsir/domain/passage"
	"gopkg.in/yaml.v3"
)

// ErrMalformed indicates a corpus entry that cannot become a passage.
var ErrMalformed = errors.New("malformed corpus entry")

// Loader reads the passage corpus from disk.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string, logger *slog.Logger) Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return Loader{dir: dir, logger: logger}
}

// Dir returns the corpus root.
func (l Loader) Dir() string { return l.dir }

// Load reads every author directory. Unreadable files and malformed entries
// are skipped with a warning; only a missing root is an error.
func (l Loader) Load(ctx context.Context) (passage.Collection, error) {
	authors, err := os.ReadDir(l.dir)
	if err != nil {
		return passage.Collection{}, fmt.Errorf("read corpus directory: %w", err)
	}

	var passages []passage.Passage
	skipped := 0
	for _, a := range authors {
		if !a.IsDir() || strings.HasPrefix(a.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(l.dir, a.Name()))
		if err != nil {
			l.logger.Warn("skipping unreadable author directory", slog.String("author", a.Name()), slog.String("error", err.Error()))
			continue
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return passage.Collection{}, err
			}
			if f.IsDir() || !isCorpusFile(f.Name()) {
				continue
			}
			path := filepath.Join(l.dir, a.Name(), f.Name())
			loaded, bad, err := l.loadFile(a.Name(), path)
			if err != nil {
				l.logger.Warn("skipping corpus file", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			passages = append(passages, loaded...)
			skipped += bad
		}
	}

	c := passage.NewCollection(passages)
	l.logger.Info("loaded corpus",
		slog.String("dir", l.dir),
		slog.Int("passages", c.Len()),
		slog.Int("skipped", skipped),
	)
	return c, nil
}

func isCorpusFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// loadFile returns the valid passages in path and the number of skipped
// entries.
func (l Loader) loadFile(author, path string) ([]passage.Passage, int, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	surah, err := strconv.Atoi(base)
	if err != nil {
		return nil, 0, fmt.Errorf("file name %q is not a surah number", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	var entries []any
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(data, &entries)
	default:
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("parse: %w", err)
	}

	out := make([]passage.Passage, 0, len(entries))
	bad := 0
	for i, raw := range entries {
		p, err := parseEntry(raw, author, surah)
		if err != nil {
			l.logger.Warn("skipping corpus entry",
				slog.String("path", path),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			bad++
			continue
		}
		out = append(out, p)
	}
	return out, bad, nil
}

func parseEntry(raw any, dirAuthor string, fileSurah int) (passage.Passage, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return passage.Passage{}, fmt.Errorf("%w: entry is %T, not an object", ErrMalformed, raw)
	}

	author := dirAuthor
	if v, present := fields["author"]; present {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return passage.Passage{}, fmt.Errorf("%w: author", ErrMalformed)
		}
		author = strings.TrimSpace(s)
	}

	v, present := fields["surah_number"]
	if !present {
		return passage.Passage{}, fmt.Errorf("%w: missing surah_number", ErrMalformed)
	}
	surah, ok := asInt(v)
	if !ok {
		return passage.Passage{}, fmt.Errorf("%w: surah_number %v is not an integer", ErrMalformed, v)
	}
	if surah != fileSurah {
		return passage.Passage{}, fmt.Errorf("%w: surah_number %d in file for surah %d", ErrMalformed, surah, fileSurah)
	}

	bounds, ok := fields["ayah_range"].([]any)
	if !ok || len(bounds) != 2 {
		return passage.Passage{}, fmt.Errorf("%w: ayah_range must be [start, end]", ErrMalformed)
	}
	start, ok1 := asInt(bounds[0])
	end, ok2 := asInt(bounds[1])
	if !ok1 || !ok2 {
		return passage.Passage{}, fmt.Errorf("%w: ayah_range %v is not numeric", ErrMalformed, bounds)
	}
	ayahs, err := passage.NewRange(start, end)
	if err != nil {
		return passage.Passage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	text, _ := fields["tafsir_text"].(string)
	if strings.TrimSpace(text) == "" {
		return passage.Passage{}, fmt.Errorf("%w: missing tafsir_text", ErrMalformed)
	}

	english, _ := fields["surah_name_english"].(string)
	arabic, _ := fields["surah_name_arabic"].(string)
	var urls []string
	if list, ok := fields["source_urls"].([]any); ok {
		for _, u := range list {
			if s, ok := u.(string); ok && s != "" {
				urls = append(urls, s)
			}
		}
	}

	p, err := passage.New(author, surah, ayahs, text, passage.NewMetadata(english, arabic, urls))
	if err != nil {
		return passage.Passage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

// asInt accepts only integral numbers within int32 range. Strings are
// rejected rather than coerced.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return n, true
	case int64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
