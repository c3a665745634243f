package repository

import (
	"context"

	"github.com/tphakala/tonebank/internal/datastore/entities"
)

// SampleRepository provides access to the samples table.
type SampleRepository interface {
	// Create inserts a sample. Returns ErrDuplicateKey when the tone already
	// has a sample at the same pitch or ordinal.
	Create(ctx context.Context, sample *entities.Sample) error

	// GetByID retrieves a sample by its ID.
	// Returns ErrSampleNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Sample, error)

	// GetByToneAndMIDI retrieves the sample of a tone at a pitch.
	// Returns ErrSampleNotFound if not found.
	GetByToneAndMIDI(ctx context.Context, toneID uint, midi int) (*entities.Sample, error)

	// ListByTone returns the samples of a tone ordered by ID.
	ListByTone(ctx context.Context, toneID uint) ([]*entities.Sample, error)

	// CountByTone returns the number of samples owned by a tone.
	CountByTone(ctx context.Context, toneID uint) (int64, error)

	// NextOrdinal returns one more than the highest ordinal used by the tone, or 0.
	NextOrdinal(ctx context.Context, toneID uint) (int, error)

	// UpdateMIDI changes the stored pitch of a sample.
	// Returns ErrSampleNotFound if not found, ErrDuplicateKey if the pitch is taken.
	UpdateMIDI(ctx context.Context, id uint, midi int) error

	// Delete removes a sample and its notes.
	// Returns ErrSampleNotFound if not found.
	Delete(ctx context.Context, id uint) error
}
