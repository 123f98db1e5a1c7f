// Package errreport forwards unexpected failures to Sentry. Every function is a
// no-op until Init succeeded with a non-empty DSN.
package errreport

import (
	"sync/atomic"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/getsentry/sentry-go"
)

var enabled atomic.Bool

// Init configures the Sentry client. An empty dsn leaves reporting disabled.
func Init(dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return err
	}
	enabled.Store(true)
	return nil
}

// Enabled reports whether errors are being sent.
func Enabled() bool {
	return enabled.Load()
}

// Capture reports err with the given tags.
func Capture(err error, tags map[string]string) {
	if err == nil || !enabled.Load() {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Flush waits for buffered events, at most timeout.
func Flush(timeout time.Duration) {
	if !enabled.Load() {
		return
	}
	if !sentry.Flush(timeout) {
		logger := config.GetLogger()
		logger.Warn().Dur("timeout", timeout).Msg("Timed out flushing error reports")
	}
}
