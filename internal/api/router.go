package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"editorial/internal/directory"
	"editorial/internal/logging"
	"editorial/internal/manuscript"
	"editorial/internal/metrics"
	"editorial/internal/notifications"
	"editorial/internal/ratings"
	"editorial/internal/stats"
)

// RecordStore is the part of manuscript.Store the API drives.
type RecordStore interface {
	AddManuscript(ctx context.Context, rec manuscript.Record) (manuscript.Record, error)
	UpdateManuscriptStatus(ctx context.Context, id string, target manuscript.Status, patch manuscript.Patch) (manuscript.Record, error)
	UpdateLayoutDetails(ctx context.Context, id string, patch manuscript.LayoutPatch) (manuscript.Record, error)
	UpdateProofreadingDetails(ctx context.Context, id string, patch manuscript.ProofreadingPatch) (manuscript.Record, error)
	UpdatePaymentStatus(ctx context.Context, id string, status manuscript.PaymentStatus) (manuscript.Record, error)
	EditSubmission(ctx context.Context, id string, patch manuscript.SubmissionPatch) (manuscript.Record, error)
	RemoveFromPreReview(ctx context.Context, id string) (bool, error)
	Get(id string) (manuscript.Record, error)
	List(status manuscript.Status) []manuscript.Record
	Snapshot() manuscript.Partitions
}

// StatsProvider serves dashboard figures.
type StatsProvider interface {
	Current() stats.DashboardStats
	ForYear(year int) stats.DashboardStats
	SetYear(ctx context.Context, year int) (stats.DashboardStats, error)
}

// RatingService stores reviewer ratings.
type RatingService interface {
	Submit(ctx context.Context, r ratings.Rating) (ratings.Rating, error)
	ListFor(manuscriptID string) []ratings.Rating
	Average(manuscriptID string) (float64, int)
}

// Deps are the collaborators the router serves. Stats, Ratings, Notifier,
// Metrics and Status are optional. Tracing defaults to the global provider.
type Deps struct {
	Store     RecordStore
	Stats     StatsProvider
	Reviewers *directory.Directory
	Editors   *directory.Directory
	Ratings   RatingService
	Notifier  notifications.Service
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Token     string
	Status    func(context.Context) DaemonStatus
	Tracing   trace.TracerProvider
}

type server struct {
	Deps
	logger *slog.Logger
	tracer trace.Tracer
}

const tracerName = "editorial/api"

// NewRouter builds the HTTP handler for the editorial API.
func NewRouter(deps Deps) http.Handler {
	provider := deps.Tracing
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	s := &server{
		Deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "api-server"),
		tracer: provider.Tracer(tracerName),
	}

	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(requestID)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(recordMetrics(s.Metrics))

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.Token, s.logger))

		r.Post("/manuscript", s.handleAddManuscript)
		r.Get("/manuscript/step", s.handleListManuscripts)
		r.Route("/manuscript/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetManuscript)
			r.Put("/", s.handleTransition)
			r.Delete("/", s.handleWithdraw)
			r.Put("/layout", s.handleLayout)
			r.Put("/proofreading", s.handleProofreading)
			r.Put("/payment", s.handlePayment)
			r.Put("/submission", s.handleSubmission)
		})

		r.Get("/reviewers", s.handleListPeople(func() *directory.Directory { return s.Reviewers }, "reviewers"))
		r.Get("/reviewers/{id}", s.handleLookupPerson(func() *directory.Directory { return s.Reviewers }, "reviewer"))
		r.Get("/editors", s.handleListPeople(func() *directory.Directory { return s.Editors }, "editors"))
		r.Get("/editors/{id}", s.handleLookupPerson(func() *directory.Directory { return s.Editors }, "editor"))

		r.Post("/ratings", s.handleSubmitRating)
		r.Get("/ratings", s.handleListRatings)

		r.Post("/mail", s.handleMail)

		r.Get("/dashboard/stats", s.handleStats)
		r.Put("/dashboard/year", s.handleSetYear)

		r.Get("/api/status", s.handleStatus)
		r.Get("/api/snapshot", s.handleSnapshot)
	})
	return r
}
