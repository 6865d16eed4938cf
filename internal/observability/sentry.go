package observability

import (
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/getsentry/sentry-go"
)

// Reporter forwards fatal run errors to Sentry. The zero value is disabled.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter returns a disabled reporter when no DSN is configured.
func NewReporter(cfg shared.MonitoringConfig, release string) (*Reporter, error) {
	if cfg.SentryDSN == "" {
		return &Reporter{}, nil
	}
	return newReporter(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          release,
		AttachStacktrace: true,
	})
}

func newReporter(opts sentry.ClientOptions) (*Reporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *Reporter) Enabled() bool { return r != nil && r.hub != nil }

// Capture reports err with tags. Runs that ended early with nothing to curate are not errors.
func (r *Reporter) Capture(err error, tags map[string]string) {
	if !r.Enabled() || err == nil || shared.IsEmptyResult(err) {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

// Flush waits up to timeout for queued events to be delivered.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(timeout)
}
