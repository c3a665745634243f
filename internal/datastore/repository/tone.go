package repository

import (
	"context"
	"time"

	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/notemap"
)

// ToneRepository provides access to the tones table.
type ToneRepository interface {
	// GetOrCreate returns the tone with the given name, creating it if needed.
	GetOrCreate(ctx context.Context, name string) (*entities.Tone, error)

	// GetByID retrieves a tone by its ID.
	// Returns ErrToneNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Tone, error)

	// GetByName retrieves a tone by its unique name.
	// Returns ErrToneNotFound if not found.
	GetByName(ctx context.Context, name string) (*entities.Tone, error)

	// List returns all tones ordered by ID.
	List(ctx context.Context) ([]*entities.Tone, error)

	// SaveMap stores a rebuilt note map for a tone and bumps its map version.
	// Returns ErrToneNotFound if not found.
	SaveMap(ctx context.Context, id uint, m notemap.NoteMap, builtAt time.Time) error

	// MapVersion reads only the map version column of a tone.
	// Returns ErrToneNotFound if not found.
	MapVersion(ctx context.Context, id uint) (uint64, error)
}
