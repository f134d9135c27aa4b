package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"editorial/internal/config"
	"editorial/internal/manuscript"
)

const userAgent = "Editorial-Go/0.1.0"

// Service defines the notification surface used by the dispatcher and API.
type Service interface {
	NotifySubmissionReceived(ctx context.Context, rec manuscript.Record) error
	NotifyStatusChanged(ctx context.Context, rec manuscript.Record, from manuscript.Status) error
	NotifyPublished(ctx context.Context, rec manuscript.Record) error
	NotifyError(ctx context.Context, err error, context string) error
	SendMail(ctx context.Context, to, subject, body string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NotificationTimeout()},
		flags:    cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	email    string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	flags    config.Notifications
}

func (n *ntfyService) NotifySubmissionReceived(ctx context.Context, rec manuscript.Record) error {
	if !n.flags.Submissions {
		return nil
	}
	message := fmt.Sprintf("📥 New submission: %s\nAuthors: %s", strings.TrimSpace(rec.Title), strings.TrimSpace(rec.Authors))
	if rec.ScopeType != "" {
		message = fmt.Sprintf("%s\nScope: %s", message, rec.ScopeType)
	}
	return n.send(ctx, payload{
		title:   "Editorial - Submission Received",
		message: message,
		tags:    []string{"editorial", "submission", "received"},
	})
}

func (n *ntfyService) NotifyStatusChanged(ctx context.Context, rec manuscript.Record, from manuscript.Status) error {
	if !n.flags.Transitions {
		return nil
	}
	data := payload{
		title:   "Editorial - " + rec.Status.Label(),
		message: fmt.Sprintf("📄 %s moved from %s to %s", strings.TrimSpace(rec.Title), from.Label(), rec.Status.Label()),
		tags:    []string{"editorial", "transition", string(rec.Status)},
	}
	if rec.Status == manuscript.StatusRejected {
		data.message = fmt.Sprintf("%s\nReason: %s", data.message, firstNonEmpty(rec.RejectionReason, rec.RejectionComment, "not given"))
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublished(ctx context.Context, rec manuscript.Record) error {
	if !n.flags.Publications {
		return nil
	}
	issue := ""
	if rec.Publish != nil {
		issue = fmt.Sprintf("Vol. %s, No. %s", rec.Publish.VolumeYear, rec.Publish.ScopeNumber)
		if rec.Publish.IssueName != "" {
			issue = fmt.Sprintf("%s (%s)", issue, rec.Publish.IssueName)
		}
	}
	message := fmt.Sprintf("✅ Published: %s", strings.TrimSpace(rec.Title))
	if issue != "" {
		message = fmt.Sprintf("%s\n%s", message, issue)
	}
	return n.send(ctx, payload{
		title:    "Editorial - Published",
		message:  message,
		tags:     []string{"editorial", "published"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.flags.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Editorial - Error",
		message:  builder.String(),
		tags:     []string{"editorial", "error", "alert"},
		priority: "high",
	})
}

// SendMail asks ntfy to forward the message to an email address.
func (n *ntfyService) SendMail(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if !manuscript.ValidEmail(to) {
		return fmt.Errorf("invalid recipient %q", to)
	}
	return n.send(ctx, payload{
		title:   strings.TrimSpace(subject),
		message: body,
		tags:    []string{"editorial", "mail"},
		email:   to,
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Editorial - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"editorial", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	if data.email != "" {
		req.Header.Set("Email", data.email)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type noopService struct{}

func (noopService) NotifySubmissionReceived(context.Context, manuscript.Record) error               { return nil }
func (noopService) NotifyStatusChanged(context.Context, manuscript.Record, manuscript.Status) error { return nil }
func (noopService) NotifyPublished(context.Context, manuscript.Record) error                        { return nil }
func (noopService) NotifyError(context.Context, error, string) error                                { return nil }
func (noopService) SendMail(context.Context, string, string, string) error                          { return nil }
func (noopService) TestNotification(context.Context) error                                          { return nil }
