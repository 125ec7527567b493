package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/repository"
	"github.com/helixml/tafsir/domain/search"
	"github.com/helixml/tafsir/internal/database"
	"gorm.io/gorm"
)

const entryBatchSize = 500

// DBSnapshotStore persists an index snapshot in the database. Only the most
// recent snapshot is kept.
type DBSnapshotStore struct {
	db database.Database
}

// NewDBSnapshotStore creates a new DBSnapshotStore.
func NewDBSnapshotStore(db database.Database) DBSnapshotStore {
	return DBSnapshotStore{db: db}
}

// Save stores snap and prunes every older snapshot within one transaction.
func (s DBSnapshotStore) Save(ctx context.Context, snap search.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	meta := snap.Metadata()
	header := SnapshotModel{
		Model:        meta.Model(),
		Count:        meta.Count(),
		Dimension:    meta.Dimension(),
		CorpusDigest: meta.CorpusDigest(),
		BuiltAt:      meta.BuiltAt().UTC(),
		CreatedAt:    time.Now().UTC(),
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var previous []int64
		if err := tx.Model(&SnapshotModel{}).Pluck("id", &previous).Error; err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}
		if err := tx.Create(&header).Error; err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}

		vectors := snap.Vectors()
		entries := make([]SnapshotEntryModel, meta.Count())
		for i, p := range snap.Passages() {
			md := p.Metadata()
			entries[i] = SnapshotEntryModel{
				SnapshotID:       header.ID,
				Position:         i,
				Author:           p.Author(),
				Surah:            p.Surah(),
				AyahStart:        p.Ayahs().Start(),
				AyahEnd:          p.Ayahs().End(),
				Text:             p.Text(),
				SurahNameEnglish: md.SurahNameEnglish(),
				SurahNameArabic:  md.SurahNameArabic(),
				SourceURLs:       StringSlice(md.SourceURLs()),
				Vector:           Float64Slice(vectors[i]),
			}
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(&entries, entryBatchSize).Error; err != nil {
				return fmt.Errorf("create snapshot entries: %w", err)
			}
		}
		return prune(tx, previous)
	})
}

func prune(tx *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := database.ApplyConditions(tx, repository.WithSnapshotIDs(ids)).Delete(&SnapshotEntryModel{}).Error
	if err != nil {
		return fmt.Errorf("prune snapshot entries: %w", err)
	}
	err = database.ApplyConditions(tx, repository.WithConditionIn("id", ids)).Delete(&SnapshotModel{}).Error
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Load reads the latest snapshot. An absent or inconsistent snapshot is
// reported as search.ErrSnapshotNotFound.
func (s DBSnapshotStore) Load(ctx context.Context) (search.Snapshot, error) {
	var header SnapshotModel
	err := database.ApplyOptions(s.db.Session(ctx), repository.WithLatest()...).First(&header).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return search.Snapshot{}, search.ErrSnapshotNotFound
	}
	if err != nil {
		return search.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	var entries []SnapshotEntryModel
	err = database.ApplyOptions(s.db.Session(ctx),
		repository.WithSnapshotID(header.ID),
		repository.WithOrderAsc("position"),
	).Find(&entries).Error
	if err != nil {
		return search.Snapshot{}, fmt.Errorf("load snapshot entries: %w", err)
	}

	passages := make([]passage.Passage, len(entries))
	vectors := make([][]float64, len(entries))
	for i, e := range entries {
		p, err := entryPassage(e.Author, e.Surah, e.AyahStart, e.AyahEnd, e.Text, e.SurahNameEnglish, e.SurahNameArabic, e.SourceURLs)
		if err != nil {
			return search.Snapshot{}, fmt.Errorf("%w: entry %d: %v", search.ErrSnapshotNotFound, i, err)
		}
		passages[i] = p
		vectors[i] = []float64(e.Vector)
	}

	meta := search.NewSnapshotMetadata(header.Model, header.Count, header.Dimension, header.BuiltAt, header.CorpusDigest)
	snap := search.NewSnapshot(meta, passages, vectors)
	if err := snap.Validate(); err != nil {
		return search.Snapshot{}, fmt.Errorf("%w: %v", search.ErrSnapshotNotFound, err)
	}
	return snap, nil
}
