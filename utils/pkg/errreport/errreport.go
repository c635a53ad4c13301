package errreport

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

type Config struct {
	DSN         string
	Environment string
	Release     string
}

// ConfigFromEnv reads SENTRY_DSN and SENTRY_ENVIRONMENT.
func ConfigFromEnv(getenv func(string) string, release string) Config {
	env := getenv("SENTRY_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return Config{
		DSN:         getenv("SENTRY_DSN"),
		Environment: env,
		Release:     release,
	}
}

// Reporter sends fatal errors to Sentry. A Reporter built without a DSN
// drops everything.
type Reporter struct {
	enabled bool
}

func New(cfg Config) (*Reporter, error) {
	if cfg.DSN == "" {
		return &Reporter{}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return &Reporter{enabled: true}, nil
}

func (r *Reporter) Enabled() bool { return r.enabled }

// Capture reports err tagged with the flow name and waits for delivery.
func (r *Reporter) Capture(flow string, err error) {
	if !r.enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("flow", flow)
		sentry.CaptureException(err)
	})
	sentry.Flush(flushTimeout)
}
