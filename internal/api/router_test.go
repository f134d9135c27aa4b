package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"editorial/internal/api"
	"editorial/internal/directory"
	"editorial/internal/manuscript"
	"editorial/internal/metrics"
	"editorial/internal/notifications"
	"editorial/internal/ratings"
	"editorial/internal/stats"
)

type fixture struct {
	server *httptest.Server
	store  *manuscript.Store
	stats  *stats.Aggregator
	mail   *mailRecorder
}

type mailRecorder struct {
	notifications.Service
	to []string
}

func (m *mailRecorder) SendMail(_ context.Context, to, _, _ string) error {
	m.to = append(m.to, to)
	return nil
}

func newFixture(t *testing.T, token string, opts ...func(*api.Deps)) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC) }
	store := manuscript.New(manuscript.WithClock(clock))

	reviewers, err := directory.New("reviewers", []directory.Person{
		{ID: "r1", Name: "Ada"}, {ID: "r2", Name: "Brook"}, {ID: "r3", Name: "Cato"},
	})
	require.NoError(t, err)
	editors, err := directory.New("editors", []directory.Person{{ID: "e1", Name: "Eve"}})
	require.NoError(t, err)

	agg := stats.NewAggregator(store,
		stats.WithWindow(0),
		stats.WithYear(2025),
		stats.WithDirectories(reviewers, editors),
	)
	agg.Start(ctx)
	t.Cleanup(agg.Subscribe(store))
	t.Cleanup(agg.Stop)

	ratingSvc, err := ratings.Open(ctx, store)
	require.NoError(t, err)

	mail := &mailRecorder{}
	deps := api.Deps{
		Store:     store,
		Stats:     agg,
		Reviewers: reviewers,
		Editors:   editors,
		Ratings:   ratingSvc,
		Notifier:  mail,
		Metrics:   metrics.New(),
		Token:     token,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	handler := api.NewRouter(deps)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, store: store, stats: agg, mail: mail}
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestManuscriptLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t, "")

	resp := f.do(t, http.MethodPost, "/manuscript", manuscript.Record{
		ID: "m1", Title: "Tidal Mixing", Authors: "R. Vale", Date: "2025-02-10", ScopeType: manuscript.ScopeInternal,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[manuscript.Record](t, resp)
	assert.Equal(t, manuscript.StatusPreReview, created.Status)

	resp = f.do(t, http.MethodPut, "/manuscript/m1", api.TransitionRequest{
		Status: manuscript.StatusDoubleBlind,
		Patch:  manuscript.Patch{Reviewers: []string{"r1", "r2"}},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/ratings", ratings.Rating{ManuscriptID: "m1", ReviewerID: "r1", Score: 4}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/ratings?manuscriptId=m1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rated := decode[api.RatingsResponse](t, resp)
	assert.Equal(t, 1, rated.Count)
	assert.InDelta(t, 4.0, rated.Average, 0.001)

	resp = f.do(t, http.MethodPut, "/manuscript/m1", api.TransitionRequest{
		Status: manuscript.StatusAccepted,
		Patch: manuscript.Patch{Layout: &manuscript.LayoutPatch{
			LayoutArtist:      manuscript.Ptr("Lee"),
			LayoutArtistEmail: manuscript.Ptr("lee@press.example.org"),
		}},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accepted := decode[manuscript.Record](t, resp)
	require.NotNil(t, accepted.Layout)
	assert.Equal(t, manuscript.StagePending, accepted.Layout.Status)

	resp = f.do(t, http.MethodPut, "/manuscript/m1/layout", manuscript.LayoutPatch{
		Status: manuscript.Ptr(manuscript.StageInProgress),
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/manuscript/step?status=accepted&year=2025", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[api.ManuscriptListResponse](t, resp)
	require.Len(t, list.Records, 1)
	assert.Equal(t, "m1", list.Records[0].ID)

	resp = f.do(t, http.MethodGet, "/manuscript/step?status=accepted&year=2024", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[api.ManuscriptListResponse](t, resp).Records)

	resp = f.do(t, http.MethodGet, "/dashboard/stats", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[stats.DashboardStats](t, resp)
	assert.Equal(t, 1, dash.Count(manuscript.StatusAccepted))
	assert.Equal(t, 3, dash.Reviewers)
	assert.Equal(t, 1, dash.Editors)

	resp = f.do(t, http.MethodGet, "/manuscript/m1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[manuscript.Record](t, resp)
	assert.Equal(t, manuscript.StageInProgress, got.Layout.Status)
}

func TestErrorKindsMapToStatusCodes(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.store.AddManuscript(context.Background(), manuscript.Record{ID: "m1", Title: "T", Authors: "A"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
		kind   string
	}{
		{"duplicate", http.MethodPost, "/manuscript", manuscript.Record{ID: "m1", Title: "T", Authors: "A"}, http.StatusConflict, manuscript.KindDuplicateID},
		{"not found", http.MethodGet, "/manuscript/missing", nil, http.StatusNotFound, manuscript.KindNotFound},
		{"illegal", http.MethodPut, "/manuscript/m1", api.TransitionRequest{Status: manuscript.StatusPublished}, http.StatusConflict, manuscript.KindIllegalTransition},
		{"validation", http.MethodPut, "/manuscript/m1", api.TransitionRequest{Status: manuscript.StatusDoubleBlind}, http.StatusUnprocessableEntity, manuscript.KindValidation},
		{"unknown status", http.MethodGet, "/manuscript/step?status=limbo", nil, http.StatusBadRequest, api.KindBadRequest},
		{"bad year", http.MethodGet, "/dashboard/stats?year=abc", nil, http.StatusBadRequest, api.KindBadRequest},
		{"unknown reviewer", http.MethodGet, "/reviewers/nobody", nil, http.StatusNotFound, manuscript.KindNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.do(t, tc.method, tc.path, tc.body, "")
			require.Equal(t, tc.code, resp.StatusCode)
			body := decode[api.ErrorResponse](t, resp)
			assert.Equal(t, tc.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestTransitionSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	f := newFixture(t, "", func(d *api.Deps) { d.Tracing = provider })

	resp := f.do(t, http.MethodPost, "/manuscript", manuscript.Record{ID: "m1", Title: "T", Authors: "A"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.do(t, http.MethodPut, "/manuscript/m1", api.TransitionRequest{Status: manuscript.StatusDoubleBlind}, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = f.do(t, http.MethodPut, "/manuscript/m1", api.TransitionRequest{
		Status: manuscript.StatusDoubleBlind,
		Patch:  manuscript.Patch{Reviewers: []string{"r1", "r2"}},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var transitions []sdktrace.ReadOnlySpan
	require.Eventually(t, func() bool {
		transitions = transitions[:0]
		for _, span := range recorder.Ended() {
			if span.Name() == "api.transition" {
				transitions = append(transitions, span)
			}
		}
		return len(transitions) == 2
	}, time.Second, 10*time.Millisecond)

	rejected, accepted := transitions[0], transitions[1]
	assert.Contains(t, rejected.Attributes(), attribute.String("manuscript.id", "m1"))
	assert.Equal(t, codes.Error, rejected.Status().Code)
	assert.Equal(t, manuscript.KindValidation, rejected.Status().Description)
	require.NotEmpty(t, rejected.Events(), "error is recorded on the span")
	assert.Equal(t, "exception", rejected.Events()[0].Name)

	assert.Contains(t, accepted.Attributes(), attribute.String("manuscript.id", "m1"))
	assert.Equal(t, codes.Unset, accepted.Status().Code)
}

func TestValidationErrorListsProblems(t *testing.T) {
	f := newFixture(t, "")
	resp := f.do(t, http.MethodPost, "/manuscript", manuscript.Record{Email: "nope"}, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[api.ErrorResponse](t, resp)
	fields := make([]string, 0, len(body.Problems))
	for _, p := range body.Problems {
		fields = append(fields, p.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "authors")
	assert.Contains(t, fields, "email")
}

func TestWithdrawAndMail(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.store.AddManuscript(context.Background(), manuscript.Record{ID: "m1", Title: "T", Authors: "A"})
	require.NoError(t, err)

	resp := f.do(t, http.MethodDelete, "/manuscript/m1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[api.WithdrawResponse](t, resp).Removed)

	resp = f.do(t, http.MethodDelete, "/manuscript/m1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[api.WithdrawResponse](t, resp).Removed)

	resp = f.do(t, http.MethodPost, "/mail", api.MailRequest{To: "bad", Subject: ""}, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, decode[api.ErrorResponse](t, resp).Problems, 2)

	resp = f.do(t, http.MethodPost, "/mail", api.MailRequest{To: "eve@press.example.org", Subject: "Hello", Body: "Hi"}, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"eve@press.example.org"}, f.mail.to)
}

func TestBearerTokenRequired(t *testing.T) {
	f := newFixture(t, "s3cret")

	resp := f.do(t, http.MethodGet, "/api/status", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, api.KindUnauthorized, decode[api.ErrorResponse](t, resp).Kind)

	resp = f.do(t, http.MethodGet, "/api/status", nil, "wrong")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/status", nil, "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[api.DaemonStatus](t, resp)
	assert.True(t, status.Running)
	assert.Equal(t, 2025, status.StatsYear)

	resp = f.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "metrics stay reachable for scrapers")
}

func TestRequestIDEchoedAndMetricsRecorded(t *testing.T) {
	f := newFixture(t, "")

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/snapshot", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-42")
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-Id"))

	resp2 := f.do(t, http.MethodGet, "/api/snapshot", nil, "")
	assert.NotEmpty(t, resp2.Header.Get("X-Request-Id"))

	resp3 := f.do(t, http.MethodGet, "/metrics", nil, "")
	data, err := io.ReadAll(resp3.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `route="/api/snapshot"`), "expected request metric labelled by route pattern")
}

func TestSetDashboardYear(t *testing.T) {
	f := newFixture(t, "")
	resp := f.do(t, http.MethodPut, "/dashboard/year", api.YearRequest{Year: 2024}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2024, decode[stats.DashboardStats](t, resp).Year)
	assert.Equal(t, 2024, f.stats.Year())

	resp = f.do(t, http.MethodPut, "/dashboard/year", api.YearRequest{Year: 0}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, api.StatusForKind(manuscript.KindPersistence))
	assert.Equal(t, http.StatusInternalServerError, api.StatusForKind(manuscript.KindInternal))
	assert.Equal(t, http.StatusInternalServerError, api.StatusForKind("something-else"))
}
