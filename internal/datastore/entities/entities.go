// Package entities contains the GORM models persisted by tonebank.
package entities

import (
	"time"

	"github.com/tphakala/tonebank/internal/notemap"
)

// Tone is a named collection of samples for one instrument timbre.
// NoteMap and SampleRoster are derived data, rewritten by every rebuild.
type Tone struct {
	ID           uint            `gorm:"primaryKey"`
	Name         string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_tone_name"`
	NoteMap      []notemap.Entry `gorm:"serializer:json;type:text"`
	SampleRoster []uint          `gorm:"serializer:json;type:text"`
	MapBuiltAt   *time.Time
	MapVersion   uint64    `gorm:"not null;default:0"` // bumped by every rebuild
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Tone) TableName() string {
	return "tones"
}

// Map returns the published note map. It is not Built until the first rebuild.
func (t *Tone) Map() notemap.NoteMap {
	return notemap.NoteMap{Entries: t.NoteMap, Roster: t.SampleRoster}
}

// Sample is one ingested audio file with its resolved pitch.
// ToneID refers to the owning tone by index only.
type Sample struct {
	ID         uint      `gorm:"primaryKey"`
	ToneID     uint      `gorm:"not null;uniqueIndex:idx_sample_tone_midi,priority:1;uniqueIndex:idx_sample_tone_ordinal,priority:1"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Filename   string    `gorm:"type:varchar(255);not null"`
	Ordinal    int       `gorm:"not null;uniqueIndex:idx_sample_tone_ordinal,priority:2"`
	MIDI       int       `gorm:"column:midi;not null;uniqueIndex:idx_sample_tone_midi,priority:2"`
	BPM        *int      `gorm:"column:bpm"`
	DurationMs *int      `gorm:"column:duration_ms"`
	Source     *string   `gorm:"type:varchar(500)"`
	SampleRate int       `gorm:"not null;default:44100"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Sample) TableName() string {
	return "samples"
}

// Note is a scheduled performance event referencing a sample.
// Notes are deleted together with their sample.
type Note struct {
	ID        uint `gorm:"primaryKey"`
	SampleID  uint `gorm:"not null;index"`
	StartBeat int  `gorm:"not null"`
	EndBeat   int  `gorm:"not null"`
	MIDI      int  `gorm:"column:midi;not null"`
}

// TableName returns the table name for GORM.
func (Note) TableName() string {
	return "notes"
}

// All lists every model for AutoMigrate, in dependency order.
func All() []any {
	return []any{&Tone{}, &Sample{}, &Note{}}
}
