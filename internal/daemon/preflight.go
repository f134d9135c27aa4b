package daemon

import (
	"context"
	"log/slog"

	"editorial/internal/logging"
	"editorial/internal/preflight"
)

// runPreflightChecks logs the readiness of paths and external services. It
// returns the number of failed checks; failures never stop the daemon.
func runPreflightChecks(ctx context.Context, results []preflight.Result, logger *slog.Logger) int {
	failed := 0
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		failed++
		logging.WarnWithContext(logging.WithContext(ctx, logger), "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue and restart the daemon"),
			logging.String(logging.FieldImpact, "dependent features may not work"),
		)
	}
	return failed
}
