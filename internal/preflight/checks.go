package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"editorial/internal/config"
	"editorial/internal/directory"
	"editorial/internal/persistence"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRoster loads the reviewer and editor roster. A missing file passes
// with an empty roster since manuscripts can still flow without it.
func CheckRoster(path string) Result {
	const name = "Roster"

	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s not found (empty roster)", path)}
		}
	}
	roster, err := directory.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%d reviewers, %d editors", roster.Reviewers.Count(), roster.Editors.Count()),
	}
}

// CheckArchive verifies the configured archive destination.
func CheckArchive(cfg config.Archive) Result {
	const name = "Archive"

	if !cfg.Enabled {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	switch cfg.Destination {
	case config.ArchiveS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return Result{Name: name, Detail: "s3 destination without bucket"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("s3://%s/%s", cfg.S3Bucket, strings.TrimPrefix(cfg.S3Prefix, "/"))}
	default:
		return CheckDirectoryAccess(name, cfg.Dir)
	}
}

// CheckNtfy verifies the ntfy server behind topic answers its health
// endpoint. An empty topic means notifications are disabled.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "Notifications"

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	parsed, err := url.Parse(topic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid topic url %q", topic)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health := parsed.Scheme + "://" + parsed.Host + "/v1/health"
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, health, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", parsed.Host)}
	}
	return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
}

// CheckStorage opens and closes the configured backend.
func CheckStorage(ctx context.Context, cfg *config.Config) Result {
	const name = "Storage"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if cfg.Storage.Backend == config.BackendMemory {
		return Result{Name: name, Passed: true, Detail: "memory (not persisted)"}
	}
	adapter, err := persistence.Open(ctx, cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer adapter.Close()
	return Result{Name: name, Passed: true, Detail: adapter.Name() + " reachable"}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (server unreachable)"
	}
	return fmt.Sprintf("health check failed (%v)", err)
}
