package repository

import (
	"context"

	"gorm.io/gorm"
)

// Set bundles the repositories that share one database handle
type Set struct {
	db      *gorm.DB
	Tones   ToneRepository
	Samples SampleRepository
	Notes   NoteRepository
}

// NewSet creates repositories backed by db
func NewSet(db *gorm.DB) *Set {
	return &Set{
		db:      db,
		Tones:   NewToneRepository(db),
		Samples: NewSampleRepository(db),
		Notes:   NewNoteRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Set) Transaction(ctx context.Context, fn func(tx *Set) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSet(tx))
	})
}
