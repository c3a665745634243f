package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/notemap"
)

func newMapCache(ttl time.Duration) *cache.Cache {
	if ttl <= 0 {
		// no expiry and no janitor goroutine
		return cache.New(cache.NoExpiration, 0)
	}
	return cache.New(ttl, 2*ttl)
}

func cacheKey(toneID uint) string {
	return strconv.FormatUint(uint64(toneID), 10)
}

// cachedMap is a map tagged with the map version it was read at
type cachedMap struct {
	version uint64
	m       notemap.NoteMap
}

// publish replaces the cached map of a tone. Callers hold the tone's writer
// lock and have committed the map.
func (s *Service) publish(toneID uint, version uint64, m notemap.NoteMap) {
	s.maps.Set(cacheKey(toneID), cachedMap{version: version, m: m}, cache.DefaultExpiration)
}

// publishedMap returns the last committed map of a tone. The cached copy is
// used only while its version matches the stored one, so rebuilds committed
// by other processes are picked up on the next lookup.
func (s *Service) publishedMap(ctx context.Context, toneID uint) (notemap.NoteMap, error) {
	version, err := s.repos.Tones.MapVersion(ctx, toneID)
	if err != nil {
		return notemap.NoteMap{}, toneError(err, toneID)
	}

	key := cacheKey(toneID)
	if v, ok := s.maps.Get(key); ok {
		if cached := v.(cachedMap); cached.version == version {
			s.metrics.RecordCache(true)
			return cached.m, nil
		}
	}
	s.metrics.RecordCache(false)

	tone, err := s.repos.Tones.GetByID(ctx, toneID)
	if err != nil {
		return notemap.NoteMap{}, toneError(err, toneID)
	}

	m := tone.Map()
	s.maps.Set(key, cachedMap{version: tone.MapVersion, m: m}, cache.DefaultExpiration)
	return m, nil
}

// rebuild recomputes a tone's map from the samples visible in tx and stores it
func (s *Service) rebuild(ctx context.Context, tx *repository.Set, toneID uint) (notemap.NoteMap, uint64, error) {
	start := time.Now()

	samples, err := tx.Samples.ListByTone(ctx, toneID)
	if err != nil {
		return notemap.NoteMap{}, 0, mapBuildError(err, toneID, "list_samples", time.Since(start))
	}

	candidates := make([]notemap.Candidate, len(samples))
	for i, sample := range samples {
		candidates[i] = notemap.Candidate{ID: sample.ID, MIDI: sample.MIDI}
	}
	m := notemap.Build(candidates)

	if err := tx.Tones.SaveMap(ctx, toneID, m, s.now()); err != nil {
		return notemap.NoteMap{}, 0, mapBuildError(err, toneID, "save_map", time.Since(start))
	}
	version, err := tx.Tones.MapVersion(ctx, toneID)
	if err != nil {
		return notemap.NoteMap{}, 0, mapBuildError(err, toneID, "map_version", time.Since(start))
	}

	elapsed := time.Since(start)
	s.metrics.RecordRebuild(len(samples), elapsed.Seconds())
	s.log.WithContext(ctx).Debug("note map rebuilt",
		logger.Uint64("tone_id", uint64(toneID)),
		logger.Int("samples", len(samples)),
		logger.Uint64("version", version),
		logger.Duration("elapsed", elapsed))
	return m, version, nil
}

func mapBuildError(err error, toneID uint, operation string, elapsed time.Duration) error {
	return errors.New(err).
		Component("catalog").
		Category(errors.CategoryMapBuild).
		Context("tone_id", toneID).
		Timing(operation, elapsed).
		Build()
}

// toneWrite is one mutation run inside a write transaction. It reports the
// tone it touched and whether that tone's membership changed.
type toneWrite func(tx *repository.Set) (toneID uint, changed bool, err error)

// write runs op and, when op reports a membership change, a rebuild in one
// transaction under the writer lock of toneName. The rebuilt map is
// published after commit.
func (s *Service) write(ctx context.Context, toneName string, op toneWrite) (notemap.NoteMap, error) {
	unlock := s.locks.lock(toneName)
	defer unlock()

	var (
		m       notemap.NoteMap
		version uint64
		toneID  uint
		changed bool
	)
	err := s.repos.Transaction(ctx, func(tx *repository.Set) error {
		var err error
		toneID, changed, err = op(tx)
		if err != nil || !changed {
			return err
		}
		m, version, err = s.rebuild(ctx, tx, toneID)
		return err
	})
	if err != nil {
		return notemap.NoteMap{}, err
	}

	if changed {
		s.publish(toneID, version, m)
	}
	return m, nil
}

// RebuildMap recomputes and publishes a tone's map. Rebuilding an unchanged
// tone yields an identical map.
func (s *Service) RebuildMap(ctx context.Context, toneID uint) (notemap.NoteMap, error) {
	tone, err := s.repos.Tones.GetByID(ctx, toneID)
	if err != nil {
		return notemap.NoteMap{}, toneError(err, toneID)
	}

	return s.write(ctx, tone.Name, func(*repository.Set) (uint, bool, error) {
		return tone.ID, true, nil
	})
}
