package repository

// WithOperation filters derived content by the "operation" column.
func WithOperation(op string) Option {
	return WithCondition("operation", op)
}

// WithIdentity filters derived content by the "identity" column.
func WithIdentity(identity string) Option {
	return WithCondition("identity", identity)
}

// WithLanguage filters derived content by the "language" column.
func WithLanguage(lang string) Option {
	return WithCondition("language", lang)
}

// WithSnapshotID filters snapshot entries by the "snapshot_id" column.
func WithSnapshotID(id int64) Option {
	return WithCondition("snapshot_id", id)
}

// WithSnapshotIDs filters snapshot entries belonging to any of ids.
func WithSnapshotIDs(ids []int64) Option {
	return WithConditionIn("snapshot_id", ids)
}

// WithLatest orders by descending id and keeps the first row.
func WithLatest() []Option {
	return []Option{WithOrderDesc("id"), WithLimit(1)}
}
