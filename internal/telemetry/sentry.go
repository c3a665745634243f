// Package telemetry provides opt-in error reporting to Sentry.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/tonebank/internal/conf"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
)

// flushTimeout bounds how long shutdown waits for queued events
const flushTimeout = 2 * time.Second

// InitSentry initializes the Sentry SDK when telemetry is enabled and routes
// enhanced errors to it. The returned function flushes pending events and
// is safe to call when telemetry is disabled.
func InitSentry(settings conf.TelemetrySettings, version string, log logger.Logger) (func(), error) {
	noop := func() {}
	if !settings.Enabled {
		log.Debug("telemetry disabled")
		return noop, nil
	}
	if settings.DSN == "" {
		log.Warn("telemetry enabled but no DSN configured")
		return noop, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          fmt.Sprintf("tonebank@%s", version),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return noop, fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	log.Info("telemetry enabled")

	return func() {
		sentry.Flush(flushTimeout)
	}, nil
}

// applyPrivacyFilters strips host and user identifying data from an event
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}
