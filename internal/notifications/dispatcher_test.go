package notifications_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"editorial/internal/logging"
	"editorial/internal/manuscript"
	"editorial/internal/notifications"
)

type recordingRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingRecorder) ObserveNotification(event string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDispatcherDeliversStoreEvents(t *testing.T) {
	server, seen := newCaptureServer(t)
	svc := notifications.NewService(configFor(server.URL))
	recorder := &recordingRecorder{}
	dispatcher := notifications.NewDispatcher(svc, 16, logging.NewNop(), recorder)

	store := manuscript.New()
	t.Cleanup(dispatcher.Subscribe(store))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(ctx) }()

	bg := context.Background()
	if _, err := store.AddManuscript(bg, manuscript.Record{ID: "m1", Title: "Tides", Authors: "R. Vale"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.UpdateManuscriptStatus(bg, "m1", manuscript.StatusDoubleBlind, manuscript.Patch{Reviewers: []string{"r1", "r2"}}); err != nil {
		t.Fatalf("double-blind: %v", err)
	}
	if _, err := store.UpdateManuscriptStatus(bg, "m1", manuscript.StatusAccepted, manuscript.Patch{Layout: &manuscript.LayoutPatch{
		LayoutArtist:      manuscript.Ptr("Lee"),
		LayoutArtistEmail: manuscript.Ptr("lee@press.example.org"),
	}}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for recorder.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	got := seen()
	// submission, double-blind transition, accepted transition, layout assignment mail
	if len(got) != 4 {
		t.Fatalf("expected 4 ntfy requests, got %d: %+v", len(got), got)
	}
	if got[3].email != "lee@press.example.org" {
		t.Fatalf("expected assignment mail to layout artist, got %+v", got[3])
	}
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	cfg := configFor("")
	dispatcher := notifications.NewDispatcher(notifications.NewService(cfg), 1, logging.NewNop(), nil)
	dispatcher.Enqueue(manuscript.Event{Kind: manuscript.EventAdded, ID: "a"})
	dispatcher.Enqueue(manuscript.Event{Kind: manuscript.EventAdded, ID: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := dispatcher.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
