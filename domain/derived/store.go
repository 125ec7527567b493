package derived

import (
	"context"
	"errors"

	"github.com/helixml/tafsir/domain/language"
)

// ErrMiss indicates no value is cached for a key.
var ErrMiss = errors.New("derived content not cached")

// Store memoises derived content. Entries never expire. Put overwrites any
// existing value for the key, and a successful Put is visible to every
// later Get, including after a restart.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Put(ctx context.Context, key Key, value string) error
}

// Translator translates source-language text into a target language.
type Translator interface {
	Translate(ctx context.Context, text string, target language.Code) (string, error)
}

// Reflector writes a reflection on source-language text in a target language.
type Reflector interface {
	Reflect(ctx context.Context, text string, target language.Code) (string, error)
}
