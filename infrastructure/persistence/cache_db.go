package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/helixml/tafsir/domain/derived"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/repository"
	"github.com/helixml/tafsir/internal/database"
)

// derivedEntry pairs a cache key with its value.
type derivedEntry struct {
	key   derived.Key
	value string
}

// derivedContentMapper maps between derived entries and DerivedContentModel.
type derivedContentMapper struct{}

// ToDomain converts a DerivedContentModel to a derived entry.
func (derivedContentMapper) ToDomain(e DerivedContentModel) derivedEntry {
	key := derived.ReconstructKey(derived.Operation(e.Operation), e.Identity, language.Code(e.Language))
	return derivedEntry{key: key, value: e.Value}
}

// ToModel converts a derived entry to a DerivedContentModel.
func (derivedContentMapper) ToModel(d derivedEntry) DerivedContentModel {
	now := time.Now().UTC()
	return DerivedContentModel{
		Operation: string(d.key.Operation()),
		Identity:  d.key.Identity(),
		Language:  d.key.Language().String(),
		Value:     d.value,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DBCache implements derived.Store using GORM.
type DBCache struct {
	database.Repository[derivedEntry, DerivedContentModel]
}

// NewDBCache creates a new DBCache.
func NewDBCache(db database.Database) DBCache {
	return DBCache{
		Repository: database.NewRepository[derivedEntry, DerivedContentModel](db, derivedContentMapper{}, "derived content"),
	}
}

// Get returns the cached value or derived.ErrMiss.
func (c DBCache) Get(ctx context.Context, key derived.Key) (string, error) {
	entry, err := c.FindOne(ctx, keyOptions(key)...)
	if errors.Is(err, database.ErrNotFound) {
		return "", derived.ErrMiss
	}
	if err != nil {
		return "", err
	}
	return entry.value, nil
}

// Put stores value under key, replacing any previous value.
func (c DBCache) Put(ctx context.Context, key derived.Key, value string) error {
	return c.Upsert(ctx, derivedEntry{key: key, value: value},
		[]string{"operation", "identity", "language"},
		[]string{"value", "updated_at"},
	)
}

func keyOptions(key derived.Key) []repository.Option {
	return []repository.Option{
		repository.WithOperation(string(key.Operation())),
		repository.WithIdentity(key.Identity()),
		repository.WithLanguage(key.Language().String()),
	}
}
