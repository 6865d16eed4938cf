// Package observability records curation runs as Prometheus metrics and reports
// fatal errors to Sentry.
//
// One-shot runs push their [Metrics] registry to a Pushgateway when one is
// configured. The long-lived serve command exposes the same registry on /metrics.
package observability
