// Package catalog owns tones and their samples and keeps every tone's
// published note map in step with its sample membership.
//
// Writers for one tone are serialized: adding, removing or retuning a
// sample rebuilds the tone's map inside the same transaction, and the new
// map is published to the lookup cache once the transaction commits.
// Lookups only ever read a published map and never trigger a rebuild. Each
// lookup checks the stored map version, so a map rebuilt by another process
// replaces the cached one.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/observability/metrics"
	"github.com/tphakala/tonebank/internal/resolver"
	"github.com/tphakala/tonebank/internal/storage"
)

// ErrMapUnavailable is returned by lookups against a tone whose map was
// never built or has no sample for the requested pitch.
var ErrMapUnavailable = errors.NewStd("note map unavailable")

// PitchResolver determines the pitch of an audio file
type PitchResolver interface {
	Resolve(ctx context.Context, req resolver.Request) (resolver.Result, error)
}

// Service is the entry point for catalog reads and writes.
type Service struct {
	repos    *repository.Set
	store    *storage.Store
	resolver PitchResolver
	maps     *cache.Cache
	locks    *toneLocks
	metrics  *metrics.CatalogMetrics
	log      logger.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger, by default the global "catalog" module
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics enables Prometheus metrics
func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCacheTTL expires published maps from the lookup cache after ttl.
// Zero keeps them until the next rebuild replaces them.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.maps = newMapCache(ttl) }
}

// New creates a Service
func New(repos *repository.Set, store *storage.Store, res PitchResolver, opts ...Option) *Service {
	s := &Service{
		repos:    repos,
		store:    store,
		resolver: res,
		maps:     newMapCache(0),
		locks:    newToneLocks(),
		log:      logger.Global().Module("catalog"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// toneError maps repository lookups to categorized errors
func toneError(err error, ref any) error {
	if errors.Is(err, repository.ErrToneNotFound) {
		return errors.New(fmt.Errorf("%w: %v", err, ref)).
			Component("catalog").
			Category(errors.CategoryNotFound).
			Context("tone", ref).
			Build()
	}
	return errors.New(err).
		Component("catalog").
		Category(errors.CategoryDatabase).
		Context("tone", ref).
		Build()
}

func sampleError(err error, id uint) error {
	if errors.Is(err, repository.ErrSampleNotFound) {
		return errors.New(fmt.Errorf("%w: %d", err, id)).
			Component("catalog").
			Category(errors.CategoryNotFound).
			Context("sample_id", id).
			Build()
	}
	return errors.New(err).
		Component("catalog").
		Category(errors.CategoryDatabase).
		Context("sample_id", id).
		Build()
}

func validationError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("catalog").
		Category(errors.CategoryValidation).
		Build()
}
