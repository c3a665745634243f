package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/errors"
)

const tableSamples = "samples"

type sampleRepository struct {
	db *gorm.DB
}

// NewSampleRepository creates a new SampleRepository.
func NewSampleRepository(db *gorm.DB) SampleRepository {
	return &sampleRepository{db: db}
}

func (r *sampleRepository) Create(ctx context.Context, sample *entities.Sample) error {
	if sample.ToneID == 0 {
		return errors.Join(ErrInvalidInput, errors.NewStd("sample has no tone"))
	}
	return translate(r.db.WithContext(ctx).Table(tableSamples).Create(sample).Error)
}

func (r *sampleRepository) GetByID(ctx context.Context, id uint) (*entities.Sample, error) {
	var sample entities.Sample
	err := r.db.WithContext(ctx).Table(tableSamples).First(&sample, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSampleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

func (r *sampleRepository) GetByToneAndMIDI(ctx context.Context, toneID uint, midi int) (*entities.Sample, error) {
	var sample entities.Sample
	err := r.db.WithContext(ctx).Table(tableSamples).
		Where("tone_id = ? AND midi = ?", toneID, midi).
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSampleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

func (r *sampleRepository) ListByTone(ctx context.Context, toneID uint) ([]*entities.Sample, error) {
	var samples []*entities.Sample
	err := r.db.WithContext(ctx).Table(tableSamples).
		Where("tone_id = ?", toneID).
		Order("id ASC").
		Find(&samples).Error
	return samples, err
}

func (r *sampleRepository) CountByTone(ctx context.Context, toneID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(tableSamples).
		Where("tone_id = ?", toneID).
		Count(&count).Error
	return count, err
}

func (r *sampleRepository) NextOrdinal(ctx context.Context, toneID uint) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Table(tableSamples).
		Select("COALESCE(MAX(ordinal), -1) + 1").
		Where("tone_id = ?", toneID).
		Scan(&next).Error
	return next, err
}

func (r *sampleRepository) UpdateMIDI(ctx context.Context, id uint, midi int) error {
	result := r.db.WithContext(ctx).Table(tableSamples).
		Where("id = ?", id).
		Update("midi", midi)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL reports zero affected rows when the value is unchanged
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *sampleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(tableNotes).Where("sample_id = ?", id).Delete(&entities.Note{}).Error; err != nil {
			return err
		}
		result := tx.Table(tableSamples).Delete(&entities.Sample{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSampleNotFound
		}
		return nil
	})
}
