package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/errors"
)

const tableNotes = "notes"

// NoteRepository provides access to the notes table.
type NoteRepository interface {
	// Create inserts a note. The referenced sample must exist.
	Create(ctx context.Context, note *entities.Note) error

	// ListBySample returns the notes of a sample ordered by start beat.
	ListBySample(ctx context.Context, sampleID uint) ([]*entities.Note, error)
}

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *entities.Note) error {
	if note.EndBeat < note.StartBeat {
		return errors.Join(ErrInvalidInput, errors.NewStd("note ends before it starts"))
	}

	var count int64
	if err := r.db.WithContext(ctx).Table(tableSamples).Where("id = ?", note.SampleID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSampleNotFound
	}

	return r.db.WithContext(ctx).Table(tableNotes).Create(note).Error
}

func (r *noteRepository) ListBySample(ctx context.Context, sampleID uint) ([]*entities.Note, error) {
	var notes []*entities.Note
	err := r.db.WithContext(ctx).Table(tableNotes).
		Where("sample_id = ?", sampleID).
		Order("start_beat ASC, id ASC").
		Find(&notes).Error
	return notes, err
}
