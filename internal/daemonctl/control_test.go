package daemonctl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"editorial/internal/api"
	"editorial/internal/client"
	"editorial/internal/config"
	"editorial/internal/manuscript"
	"editorial/internal/testsupport"
)

func unreachableClient(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.New("127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return c
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch(" ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}

func TestEnsureStartedReportsRunningDaemon(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter(api.Deps{Store: manuscript.New()}))
	defer srv.Close()
	c, err := client.New(srv.URL, "")
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	result, err := EnsureStarted(context.Background(), c, "/nonexistent/editoriald", LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != StartStateAlreadyRunning || result.Launched {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWaitForAPITimesOut(t *testing.T) {
	_, err := WaitForAPI(context.Background(), unreachableClient(t), 300*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := Stop(context.Background(), unreachableClient(t), cfg, time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestSignalProcessRefusesSelf(t *testing.T) {
	if err := signalProcess(0, 0); err == nil {
		t.Fatal("expected error for pid 0")
	}
}

func TestBuildStatusFallsBackToStorage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewManuscript(t, store, "m1", "Tidal Flats")
	testsupport.NewManuscript(t, store, "m2", "Seagrass Beds")
	testsupport.Advance(t, store, "m2", manuscript.StatusAccepted)

	status, err := BuildStatus(context.Background(), unreachableClient(t), cfg)
	if err != nil {
		t.Fatalf("BuildStatus: %v", err)
	}
	if status.Running {
		t.Fatal("offline status must not report running")
	}
	if status.Counts[manuscript.StatusPreReview] != 1 || status.Counts[manuscript.StatusAccepted] != 1 {
		t.Fatalf("unexpected counts: %+v", status.Counts)
	}
}

func TestBuildStatusPrefersDaemon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"running":true,"pid":42,"backend":"redis","version":7,"counts":{}}`))
	}))
	defer srv.Close()
	c, err := client.New(srv.URL, "")
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	cfg := config.Default()
	status, err := BuildStatus(context.Background(), c, &cfg)
	if err != nil {
		t.Fatalf("BuildStatus: %v", err)
	}
	if !status.Running || status.PID != 42 || status.Backend != "redis" {
		t.Fatalf("unexpected status: %+v", status)
	}
}
