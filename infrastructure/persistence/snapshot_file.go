package persistence

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
)

// snapshotFormat is bumped whenever the encoded layout changes.
const snapshotFormat = 1

type snapshotFile struct {
	Format       int
	Model        string
	Dimension    int
	CorpusDigest string
	BuiltAt      time.Time
	Entries      []snapshotFileEntry
}

type snapshotFileEntry struct {
	Author           string
	Surah            int
	AyahStart        int
	AyahEnd          int
	Text             string
	SurahNameEnglish string
	SurahNameArabic  string
	SourceURLs       []string
	Vector           []float64
}

// FileSnapshotStore persists an index snapshot as a single gob file.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore creates a store writing to path.
func NewFileSnapshotStore(path string) FileSnapshotStore {
	return FileSnapshotStore{path: path}
}

// Path returns the snapshot file location.
func (s FileSnapshotStore) Path() string { return s.path }

// Save writes the snapshot to a temporary file in the target directory and
// renames it into place, so readers see either the old or the new file.
func (s FileSnapshotStore) Save(ctx context.Context, snap search.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	meta := snap.Metadata()
	out := snapshotFile{
		Format:       snapshotFormat,
		Model:        meta.Model(),
		Dimension:    meta.Dimension(),
		CorpusDigest: meta.CorpusDigest(),
		BuiltAt:      meta.BuiltAt().UTC(),
		Entries:      make([]snapshotFileEntry, meta.Count()),
	}
	vectors := snap.Vectors()
	for i, p := range snap.Passages() {
		md := p.Metadata()
		out.Entries[i] = snapshotFileEntry{
			Author:           p.Author(),
			Surah:            p.Surah(),
			AyahStart:        p.Ayahs().Start(),
			AyahEnd:          p.Ayahs().End(),
			Text:             p.Text(),
			SurahNameEnglish: md.SurahNameEnglish(),
			SurahNameArabic:  md.SurahNameArabic(),
			SourceURLs:       md.SourceURLs(),
			Vector:           vectors[i],
		}
	}

	return writeAtomic(s.path, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(out)
	})
}

// Load reads the snapshot. A missing, undecodable, or inconsistent file is
// reported as search.ErrSnapshotNotFound.
func (s FileSnapshotStore) Load(ctx context.Context) (search.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return search.Snapshot{}, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return search.Snapshot{}, search.ErrSnapshotNotFound
	}
	if err != nil {
		return search.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	var in snapshotFile
	if err := gob.NewDecoder(f).Decode(&in); err != nil {
		return search.Snapshot{}, fmt.Errorf("%w: decode %s: %v", search.ErrSnapshotNotFound, s.path, err)
	}
	if in.Format != snapshotFormat {
		return search.Snapshot{}, fmt.Errorf("%w: format %d, want %d", search.ErrSnapshotNotFound, in.Format, snapshotFormat)
	}

	passages := make([]passage.Passage, len(in.Entries))
	vectors := make([][]float64, len(in.Entries))
	for i, e := range in.Entries {
		p, err := entryPassage(e.Author, e.Surah, e.AyahStart, e.AyahEnd, e.Text, e.SurahNameEnglish, e.SurahNameArabic, e.SourceURLs)
		if err != nil {
			return search.Snapshot{}, fmt.Errorf("%w: entry %d: %v", search.ErrSnapshotNotFound, i, err)
		}
		passages[i] = p
		vectors[i] = e.Vector
	}

	meta := search.NewSnapshotMetadata(in.Model, len(in.Entries), in.Dimension, in.BuiltAt, in.CorpusDigest)
	snap := search.NewSnapshot(meta, passages, vectors)
	if err := snap.Validate(); err != nil {
		return search.Snapshot{}, fmt.Errorf("%w: %v", search.ErrSnapshotNotFound, err)
	}
	return snap, nil
}

func entryPassage(author string, surah, start, end int, text, nameEnglish, nameArabic string, urls []string) (passage.Passage, error) {
	r, err := passage.NewRange(start, end)
	if err != nil {
		return passage.Passage{}, err
	}
	return passage.New(author, surah, r, text, passage.NewMetadata(nameEnglish, nameArabic, urls))
}

// writeAtomic writes via a synced temporary file in the target directory
// followed by a rename.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	committed = true
	return nil
}
