package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) { r.reported = append(r.reported, ee) }
func (r *recordingReporter) IsEnabled() bool               { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderKeepsExplicitMetadata(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("sample %d missing", 7).
		Component("catalog").
		Category(CategoryNotFound).
		Priority(PriorityLow).
		Context("sample_id", 7).
		Build()

	assert.Equal(t, "sample 7 missing", ee.Error())
	assert.Equal(t, "catalog", ee.GetComponent())
	assert.Equal(t, PriorityLow, ee.GetPriority())
	assert.Equal(t, 7, ee.GetContext()["sample_id"])
	assert.True(t, IsNotFound(ee))
	assert.False(t, IsCategory(ee, CategoryDatabase))
}

func TestUnknownPriorityFallsBackToMedium(t *testing.T) {
	ee := New(NewStd("x")).Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.GetPriority())
}

func TestWrappedSentinelStillMatches(t *testing.T) {
	sentinel := NewStd("unresolved")
	ee := New(fmt.Errorf("file a.wav: %w", sentinel)).Category(CategoryPitchResolution).Build()

	require.ErrorIs(t, ee, sentinel)
	assert.True(t, IsCategory(fmt.Errorf("outer: %w", ee), CategoryPitchResolution))
}

func TestReporterReceivesBuiltErrors(t *testing.T) {
	rec := &recordingReporter{}
	SetTelemetryReporter(rec)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("database is locked")).Component("datastore").Build()

	require.Len(t, rec.reported, 1)
	assert.Same(t, ee, rec.reported[0])
	assert.Equal(t, CategoryDatabase, ee.Category)
}

func TestDetectCategoryFromMessage(t *testing.T) {
	assert.Equal(t, CategoryPitchResolution, detectCategory(NewStd("could not resolve pitch"), ""))
	assert.Equal(t, CategoryFileIO, detectCategory(NewStd("open foo.wav: no such file"), ""))
	assert.Equal(t, CategoryStorage, detectCategory(NewStd("boom"), "storage"))
	assert.Equal(t, CategoryGeneric, detectCategory(NewStd("boom"), "catalog"))
	assert.Equal(t, CategoryCancellation, detectCategory(fmt.Errorf("analyze: %w", context.Canceled), "pitchtrack"))
}

func TestTimingAndCancellation(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(context.DeadlineExceeded).
		Category(CategoryCancellation).
		Timing("rebuild", 1500*time.Millisecond).
		Build()

	assert.Equal(t, "rebuild", ee.GetContext()["operation"])
	assert.Equal(t, int64(1500), ee.GetContext()["duration_ms"])
	assert.True(t, IsCancelled(ee))
	assert.True(t, IsCancelled(fmt.Errorf("outer: %w", context.Canceled)))
	assert.False(t, IsCancelled(NewStd("boom")))
}

func TestScrubMessage(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"url query", "GET https://example.com/x?token=abc failed", "GET https://example.com/x?[REDACTED] failed"},
		{"mysql dsn", "dial tonebank:hunter2@tcp(db:3306)/tones", "dial [REDACTED]@tcp(db:3306)/tones"},
		{"home path", "open /home/alice/samples/c4.wav", "open /home/[USER]/samples/c4.wav"},
		{"password", "password=secret rejected", "[REDACTED] rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrubMessage(tt.in))
		})
	}
}
