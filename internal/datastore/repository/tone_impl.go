package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/notemap"
)

const tableTones = "tones"

type toneRepository struct {
	db *gorm.DB
}

// NewToneRepository creates a new ToneRepository.
func NewToneRepository(db *gorm.DB) ToneRepository {
	return &toneRepository{db: db}
}

func (r *toneRepository) GetOrCreate(ctx context.Context, name string) (*entities.Tone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Join(ErrInvalidInput, errors.NewStd("tone name is empty"))
	}

	tone, err := r.GetByName(ctx, name)
	if err == nil {
		return tone, nil
	}
	if !errors.Is(err, ErrToneNotFound) {
		return nil, err
	}

	tone = &entities.Tone{Name: name}
	createErr := r.db.WithContext(ctx).Table(tableTones).Create(tone).Error
	if createErr != nil {
		// another writer may have created it first
		existing, findErr := r.GetByName(ctx, name)
		if findErr != nil {
			return nil, translate(createErr)
		}
		return existing, nil
	}
	return tone, nil
}

func (r *toneRepository) GetByID(ctx context.Context, id uint) (*entities.Tone, error) {
	var tone entities.Tone
	err := r.db.WithContext(ctx).Table(tableTones).First(&tone, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrToneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tone, nil
}

func (r *toneRepository) GetByName(ctx context.Context, name string) (*entities.Tone, error) {
	var tone entities.Tone
	err := r.db.WithContext(ctx).Table(tableTones).
		Where("name = ?", name).
		First(&tone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrToneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tone, nil
}

func (r *toneRepository) List(ctx context.Context) ([]*entities.Tone, error) {
	var tones []*entities.Tone
	err := r.db.WithContext(ctx).Table(tableTones).
		Order("id ASC").
		Find(&tones).Error
	return tones, err
}

func (r *toneRepository) SaveMap(ctx context.Context, id uint, m notemap.NoteMap, builtAt time.Time) error {
	bump := r.db.WithContext(ctx).Table(tableTones).
		Where("id = ?", id).
		UpdateColumn("map_version", gorm.Expr("map_version + ?", 1))
	if bump.Error != nil {
		return bump.Error
	}
	if bump.RowsAffected == 0 {
		return ErrToneNotFound
	}

	tone := entities.Tone{ID: id, NoteMap: m.Entries, SampleRoster: m.Roster, MapBuiltAt: &builtAt}
	return r.db.WithContext(ctx).Model(&tone).
		Select("NoteMap", "SampleRoster", "MapBuiltAt").
		Updates(&tone).Error
}

func (r *toneRepository) MapVersion(ctx context.Context, id uint) (uint64, error) {
	var versions []uint64
	err := r.db.WithContext(ctx).Table(tableTones).
		Where("id = ?", id).
		Pluck("map_version", &versions).Error
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, ErrToneNotFound
	}
	return versions[0], nil
}
