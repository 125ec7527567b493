package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotModel is the metadata row of a persisted index snapshot.
type SnapshotModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Model        string    `gorm:"column:model;size:512"`
	Count        int       `gorm:"column:count"`
	Dimension    int       `gorm:"column:dimension"`
	CorpusDigest string    `gorm:"column:corpus_digest;size:64"`
	BuiltAt      time.Time `gorm:"column:built_at"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (SnapshotModel) TableName() string {
	return "index_snapshots"
}

// SnapshotEntryModel is one passage and its vector within a snapshot.
type SnapshotEntryModel struct {
	ID               int64        `gorm:"column:id;primaryKey;autoIncrement"`
	SnapshotID       int64        `gorm:"column:snapshot_id;index"`
	Position         int          `gorm:"column:position"`
	Author           string       `gorm:"column:author;index;size:255"`
	Surah            int          `gorm:"column:surah"`
	AyahStart        int          `gorm:"column:ayah_start"`
	AyahEnd          int          `gorm:"column:ayah_end"`
	Text             string       `gorm:"column:text;type:text"`
	SurahNameEnglish string       `gorm:"column:surah_name_english;size:255"`
	SurahNameArabic  string       `gorm:"column:surah_name_arabic;size:255"`
	SourceURLs       StringSlice  `gorm:"column:source_urls;type:json"`
	Vector           Float64Slice `gorm:"column:vector;type:json"`
}

// TableName returns the table name.
func (SnapshotEntryModel) TableName() string {
	return "index_snapshot_entries"
}

// DerivedContentModel is one cached translation or reflection.
type DerivedContentModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Operation string    `gorm:"column:operation;size:32;uniqueIndex:idx_derived_key"`
	Identity  string    `gorm:"column:identity;size:512;uniqueIndex:idx_derived_key"`
	Language  string    `gorm:"column:language;size:8;uniqueIndex:idx_derived_key"`
	Value     string    `gorm:"column:value;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (DerivedContentModel) TableName() string {
	return "derived_contents"
}

// Float64Slice is a custom type for JSON serialization of []float64.
type Float64Slice []float64

// Scan implements sql.Scanner.
func (f *Float64Slice) Scan(value any) error {
	return scanJSON(value, f)
}

// Value implements driver.Valuer.
func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal([]float64(f))
}

// StringSlice is a custom type for JSON serialization of []string.
type StringSlice []string

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value any) error {
	return scanJSON(value, s)
}

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal([]string(s))
}

func scanJSON(value any, dst any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dst)
	}
	return json.Unmarshal(data, dst)
}
