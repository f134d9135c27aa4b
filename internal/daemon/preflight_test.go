package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"editorial/internal/logging"
	"editorial/internal/preflight"
)

func TestRunPreflightChecksCountsFailures(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "preflight.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	results := []preflight.Result{
		{Name: "Data directory", Passed: true, Detail: "ok"},
		{Name: "Notifications", Detail: "health check failed (503)"},
	}
	if failed := runPreflightChecks(context.Background(), results, logger); failed != 1 {
		t.Fatalf("expected 1 failure, got %d", failed)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"event_type":"preflight_failed"`) || !strings.Contains(content, "Notifications") {
		t.Fatalf("expected failure warning in log, got %q", content)
	}
	if strings.Contains(content, "preflight check passed") {
		t.Fatalf("passed checks log at debug only, got %q", content)
	}
}
