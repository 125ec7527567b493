package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/helixml/tafsir/domain/derived"
)

type cacheBody struct {
	Text string `json:"text"`
}

// FileCache stores derived content as one JSON file per key under dir.
type FileCache struct {
	dir string
}

// NewFileCache creates a FileCache rooted at dir.
func NewFileCache(dir string) FileCache {
	return FileCache{dir: dir}
}

// Path returns the file holding key:
// <dir>/<operation>/<partition>/<name>_<lang>.json.
func (c FileCache) Path(key derived.Key) string {
	return filepath.Join(
		c.dir,
		segment(string(key.Operation())),
		segment(key.Partition()),
		segment(key.Name()+"_"+key.Language().String())+".json",
	)
}

// Get returns the cached value or derived.ErrMiss.
func (c FileCache) Get(ctx context.Context, key derived.Key) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", derived.ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("read cache %s: %w", key, err)
	}
	var body cacheBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("decode cache %s: %w", key, err)
	}
	return body.Text, nil
}

// Put stores value under key, replacing any previous value.
func (c FileCache) Put(ctx context.Context, key derived.Key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(cacheBody{Text: value})
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	return writeAtomic(c.Path(key), func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// segment makes an identifier safe to use as one path element.
func segment(s string) string {
	if s == "" {
		return "_"
	}
	escaped := url.PathEscape(s)
	if strings.Trim(escaped, ".") == "" {
		escaped = strings.ReplaceAll(escaped, ".", "%2E")
	}
	return escaped
}
