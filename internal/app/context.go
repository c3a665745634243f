// Package app wires settings, logging, storage and the catalog into the
// application state shared by CLI commands.
package app

import (
	"github.com/spf13/afero"

	"github.com/tphakala/tonebank/internal/buildinfo"
	"github.com/tphakala/tonebank/internal/catalog"
	"github.com/tphakala/tonebank/internal/conf"
	"github.com/tphakala/tonebank/internal/datastore"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/observability"
	"github.com/tphakala/tonebank/internal/pitchtrack"
	"github.com/tphakala/tonebank/internal/resolver"
	"github.com/tphakala/tonebank/internal/storage"
	"github.com/tphakala/tonebank/internal/telemetry"
)

// Context holds the application state. Settings and logging are set up by
// Load; the database and catalog are opened on demand by Open.
type Context struct {
	Build    *buildinfo.Context
	Settings *conf.Settings
	Log      logger.Logger
	Metrics  *observability.Metrics
	Catalog  *catalog.Service

	central        *logger.CentralLogger
	db             datastore.Manager
	flushTelemetry func()
}

// NewContext creates an empty Context for the given build
func NewContext(build *buildinfo.Context) *Context {
	return &Context{Build: build}
}

// Load reads settings from configFile (or the default locations) and sets up
// logging and telemetry. debug forces debug logging.
func (c *Context) Load(configFile string, debug bool) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	if debug {
		settings.Debug = true
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}
	c.Settings = settings

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_logger").
			Build()
	}
	logger.SetGlobal(central)
	c.central = central
	c.Log = central.Module("cli")

	flush, err := telemetry.InitSentry(settings.Telemetry, c.Build.GetVersion(), central.Module("telemetry"))
	if err != nil {
		c.Log.Warn("telemetry unavailable", logger.Error(err))
	}
	c.flushTelemetry = flush
	return nil
}

// Open connects the database and builds the catalog. A nil prompter
// disables interactive pitch entry.
func (c *Context) Open(prompter resolver.Prompter) error {
	if c.Catalog != nil {
		return nil
	}
	s := c.Settings

	db, err := datastore.Open(s, c.central.Module("datastore"))
	if err != nil {
		return err
	}
	c.db = db

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}
	c.Metrics = metrics

	tracker, err := pitchtrack.NewFileTracker(pitchtrack.Config{
		FrameSize:    s.Resolver.Tracker.FrameSize,
		HopSize:      s.Resolver.Tracker.HopSize,
		Threshold:    s.Resolver.Tracker.Threshold,
		MinFrequency: s.Resolver.Tracker.MinFrequency,
		MaxFrequency: s.Resolver.Tracker.MaxFrequency,
	})
	if err != nil {
		return err
	}

	opts := []resolver.Option{resolver.WithLogger(c.central.Module("resolver"))}
	if prompter != nil {
		opts = append(opts, resolver.WithPrompter(prompter))
	}
	res := resolver.New(resolver.Config{
		Confidence:        s.Resolver.Confidence,
		DefaultSampleRate: s.Resolver.DefaultSampleRate,
		DefaultOctave:     s.Resolver.DefaultOctave,
	}, tracker, opts...)

	store := storage.New(afero.NewOsFs(), s.Storage.BasePath, c.central.Module("storage"))

	c.Catalog = catalog.New(datastore.Repositories(db), store, res,
		catalog.WithLogger(c.central.Module("catalog")),
		catalog.WithMetrics(metrics.Catalog),
		catalog.WithCacheTTL(s.Lookup.CacheTTL))
	return nil
}

// Close releases the database, flushes telemetry and closes log files
func (c *Context) Close() error {
	var errs []error
	if c.db != nil {
		errs = append(errs, c.db.Close())
		c.db = nil
		c.Catalog = nil
	}
	if c.flushTelemetry != nil {
		c.flushTelemetry()
	}
	if c.central != nil {
		errs = append(errs, c.central.Close())
	}
	return errors.Join(errs...)
}
