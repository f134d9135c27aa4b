package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"editorial/internal/logging"
	"editorial/internal/manuscript"
)

// Publisher delivers committed store mutations.
type Publisher interface {
	OnMutationCommitted(fn func(manuscript.Event)) func()
}

// Recorder counts delivery outcomes.
type Recorder interface {
	ObserveNotification(event string, err error)
}

// Dispatcher queues store events and delivers them from Run.
type Dispatcher struct {
	service  Service
	queue    chan manuscript.Event
	logger   *slog.Logger
	recorder Recorder
}

// NewDispatcher creates a dispatcher with a queue of size events. A nil
// recorder is allowed.
func NewDispatcher(service Service, size int, logger *slog.Logger, recorder Recorder) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		service:  service,
		queue:    make(chan manuscript.Event, size),
		logger:   logging.NewComponentLogger(logger, "notifications"),
		recorder: recorder,
	}
}

// Subscribe enqueues every event pub commits.
func (d *Dispatcher) Subscribe(pub Publisher) func() {
	return pub.OnMutationCommitted(d.Enqueue)
}

// Enqueue adds evt to the queue without blocking. When the queue is full the
// event is dropped and logged.
func (d *Dispatcher) Enqueue(evt manuscript.Event) {
	select {
	case d.queue <- evt:
	default:
		logging.WarnWithContext(d.logger, "notification queue full; dropping event", "notification_dropped",
			logging.String(logging.FieldManuscriptID, evt.ID),
			logging.String("event", string(evt.Kind)),
			logging.String(logging.FieldErrorHint, "raise notifications.queue_size or check ntfy latency"),
			logging.String(logging.FieldImpact, "one notification was not sent"),
		)
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-d.queue:
			d.deliver(ctx, evt)
		case <-ctx.Done():
			d.drain()
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case evt := <-d.queue:
			d.deliver(context.Background(), evt)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt manuscript.Event) {
	name, err := d.dispatch(ctx, evt)
	if name == "" {
		return
	}
	if d.recorder != nil {
		d.recorder.ObserveNotification(name, err)
	}
	if err != nil {
		logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
			logging.String(logging.FieldManuscriptID, evt.ID),
			logging.String("event", name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
			logging.String(logging.FieldImpact, "recipients were not notified"),
		)
		return
	}
	d.logger.Debug("notification sent",
		logging.String(logging.FieldManuscriptID, evt.ID),
		logging.String("event", name),
	)
}

// dispatch maps an event to notifications. It returns the notification name,
// or "" when the event produces none.
func (d *Dispatcher) dispatch(ctx context.Context, evt manuscript.Event) (string, error) {
	rec := evt.Record
	switch evt.Kind {
	case manuscript.EventAdded:
		return "submission_received", d.service.NotifySubmissionReceived(ctx, rec)
	case manuscript.EventTransitioned:
		switch evt.To {
		case manuscript.StatusPublished:
			return "published", d.service.NotifyPublished(ctx, rec)
		case manuscript.StatusAccepted:
			err := d.service.NotifyStatusChanged(ctx, rec, evt.From)
			if rec.Layout != nil && rec.Layout.LayoutArtistEmail != "" {
				err = joinErr(err, d.service.SendMail(ctx, rec.Layout.LayoutArtistEmail,
					"Layout assignment: "+strings.TrimSpace(rec.Title), assignmentBody(rec, "layout")))
			}
			return "status_changed", err
		case manuscript.StatusFinalProofreading:
			err := d.service.NotifyStatusChanged(ctx, rec, evt.From)
			if rec.Proofreading != nil && rec.Proofreading.ProofreaderEmail != "" {
				err = joinErr(err, d.service.SendMail(ctx, rec.Proofreading.ProofreaderEmail,
					"Proofreading assignment: "+strings.TrimSpace(rec.Title), assignmentBody(rec, "proofreading")))
			}
			return "status_changed", err
		default:
			return "status_changed", d.service.NotifyStatusChanged(ctx, rec, evt.From)
		}
	default:
		return "", nil
	}
}

func assignmentBody(rec manuscript.Record, stage string) string {
	return fmt.Sprintf("You have been assigned %s for %q by %s (manuscript %s).",
		stage, strings.TrimSpace(rec.Title), strings.TrimSpace(rec.Authors), rec.ID)
}

func joinErr(first, second error) error {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	default:
		return fmt.Errorf("%w; %w", first, second)
	}
}
