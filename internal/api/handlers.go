package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"editorial/internal/directory"
	"editorial/internal/manuscript"
	"editorial/internal/ratings"
	"editorial/internal/services"
)

const maxBodyBytes = 1 << 20

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string     { return e.msg }
func (e *badRequestError) ErrorKind() string { return KindBadRequest }

type unavailableError struct{ what string }

func (e *unavailableError) Error() string     { return e.what + " unavailable" }
func (e *unavailableError) ErrorKind() string { return KindUnavailable }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func decodeBody(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return badRequest("request body is empty")
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func parseYear(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 1 || year > 9999 {
		return 0, badRequest("invalid year %q", value)
	}
	return year, nil
}

// mutate runs fn inside a span and writes its result with status.
func (s *server) mutate(w http.ResponseWriter, r *http.Request, op string, status int, fn func(ctx context.Context) (any, error)) {
	id := chi.URLParam(r, "id")
	ctx, span := s.tracer.Start(r.Context(), "api."+op,
		trace.WithAttributes(attribute.String("manuscript.id", id)),
	)
	defer span.End()
	ctx = services.WithManuscriptID(ctx, id)

	result, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, manuscript.KindOf(err))
		writeError(w, r.WithContext(ctx), s.logger, err)
		return
	}
	writeJSON(w, s.logger, status, result)
}

func (s *server) handleAddManuscript(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "add_manuscript", http.StatusCreated, func(ctx context.Context) (any, error) {
		var rec manuscript.Record
		if err := decodeBody(r, &rec); err != nil {
			return nil, err
		}
		return s.Store.AddManuscript(ctx, rec)
	})
}

func (s *server) handleListManuscripts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status, ok := manuscript.ParseStatus(query.Get("status"))
	if !ok {
		writeError(w, r, s.logger, badRequest("unknown status %q", query.Get("status")))
		return
	}
	year, err := parseYear(query.Get("year"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	records := s.Store.List(status)
	if year != 0 {
		filtered := make([]manuscript.Record, 0, len(records))
		for _, rec := range records {
			if ts, ok := manuscript.ParseDate(rec.Date); ok && ts.Year() == year {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []manuscript.Record{}
	}
	writeJSON(w, s.logger, http.StatusOK, ManuscriptListResponse{Status: status, Year: year, Records: records})
}

func (s *server) handleGetManuscript(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, rec)
}

func (s *server) handleTransition(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "transition", http.StatusOK, func(ctx context.Context) (any, error) {
		var req TransitionRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		target, ok := manuscript.ParseStatus(string(req.Status))
		if !ok {
			return nil, &manuscript.ValidationError{Problems: []manuscript.FieldProblem{
				{Field: "status", Reason: fmt.Sprintf("unknown status %q", req.Status)},
			}}
		}
		return s.Store.UpdateManuscriptStatus(ctx, chi.URLParam(r, "id"), target, req.Patch)
	})
}

func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "update_layout", http.StatusOK, func(ctx context.Context) (any, error) {
		var patch manuscript.LayoutPatch
		if err := decodeBody(r, &patch); err != nil {
			return nil, err
		}
		return s.Store.UpdateLayoutDetails(ctx, chi.URLParam(r, "id"), patch)
	})
}

func (s *server) handleProofreading(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "update_proofreading", http.StatusOK, func(ctx context.Context) (any, error) {
		var patch manuscript.ProofreadingPatch
		if err := decodeBody(r, &patch); err != nil {
			return nil, err
		}
		return s.Store.UpdateProofreadingDetails(ctx, chi.URLParam(r, "id"), patch)
	})
}

func (s *server) handlePayment(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "update_payment", http.StatusOK, func(ctx context.Context) (any, error) {
		var req PaymentRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		return s.Store.UpdatePaymentStatus(ctx, chi.URLParam(r, "id"), req.PaymentStatus)
	})
}

func (s *server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "edit_submission", http.StatusOK, func(ctx context.Context) (any, error) {
		var patch manuscript.SubmissionPatch
		if err := decodeBody(r, &patch); err != nil {
			return nil, err
		}
		return s.Store.EditSubmission(ctx, chi.URLParam(r, "id"), patch)
	})
}

func (s *server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "withdraw", http.StatusOK, func(ctx context.Context) (any, error) {
		id := chi.URLParam(r, "id")
		removed, err := s.Store.RemoveFromPreReview(ctx, id)
		if err != nil {
			return nil, err
		}
		return WithdrawResponse{ID: id, Removed: removed}, nil
	})
}

func (s *server) handleListPeople(dir func() *directory.Directory, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		people := dir().List()
		if people == nil {
			people = []directory.Person{}
		}
		writeJSON(w, s.logger, http.StatusOK, PeopleResponse{Kind: kind, People: people})
	}
}

func (s *server) handleLookupPerson(dir func() *directory.Directory, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		person, ok := dir().Lookup(id)
		if !ok {
			writeProblem(w, s.logger, http.StatusNotFound, manuscript.KindNotFound, fmt.Sprintf("%s %q not found", kind, id))
			return
		}
		writeJSON(w, s.logger, http.StatusOK, person)
	}
}

func (s *server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "rate", http.StatusCreated, func(ctx context.Context) (any, error) {
		if s.Ratings == nil {
			return nil, &unavailableError{what: "ratings"}
		}
		var rating ratings.Rating
		if err := decodeBody(r, &rating); err != nil {
			return nil, err
		}
		return s.Ratings.Submit(ctx, rating)
	})
}

func (s *server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	if s.Ratings == nil {
		writeError(w, r, s.logger, &unavailableError{what: "ratings"})
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("manuscriptId"))
	if id == "" {
		writeError(w, r, s.logger, badRequest("manuscriptId is required"))
		return
	}
	list := s.Ratings.ListFor(id)
	if list == nil {
		list = []ratings.Rating{}
	}
	avg, count := s.Ratings.Average(id)
	writeJSON(w, s.logger, http.StatusOK, RatingsResponse{ManuscriptID: id, Average: avg, Count: count, Ratings: list})
}

func (s *server) handleMail(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "mail", http.StatusAccepted, func(ctx context.Context) (any, error) {
		if s.Notifier == nil {
			return nil, &unavailableError{what: "notifier"}
		}
		var req MailRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		var problems []manuscript.FieldProblem
		if !manuscript.ValidEmail(req.To) {
			problems = append(problems, manuscript.FieldProblem{Field: "to", Reason: "must be a valid email address"})
		}
		if strings.TrimSpace(req.Subject) == "" {
			problems = append(problems, manuscript.FieldProblem{Field: "subject", Reason: "is required"})
		}
		if len(problems) > 0 {
			return nil, &manuscript.ValidationError{Problems: problems}
		}
		if err := s.Notifier.SendMail(ctx, req.To, req.Subject, req.Body); err != nil {
			return nil, fmt.Errorf("send mail: %w", err)
		}
		return map[string]string{"status": "queued"}, nil
	})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, r, s.logger, &unavailableError{what: "stats"})
		return
	}
	year, err := parseYear(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if year == 0 {
		writeJSON(w, s.logger, http.StatusOK, s.Stats.Current())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.Stats.ForYear(year))
}

func (s *server) handleSetYear(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "set_year", http.StatusOK, func(ctx context.Context) (any, error) {
		if s.Stats == nil {
			return nil, &unavailableError{what: "stats"}
		}
		var req YearRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		if req.Year < 1 || req.Year > 9999 {
			return nil, badRequest("invalid year %d", req.Year)
		}
		return s.Stats.SetYear(ctx, req.Year)
	})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.Status != nil {
		writeJSON(w, s.logger, http.StatusOK, s.Status(r.Context()))
		return
	}
	snapshot := s.Store.Snapshot()
	counts := make(map[manuscript.Status]int, len(snapshot.Records))
	for _, status := range manuscript.AllStatuses() {
		counts[status] = snapshot.Count(status)
	}
	payload := DaemonStatus{
		Running: true,
		PID:     os.Getpid(),
		Version: snapshot.Version,
		Counts:  counts,
	}
	if s.Stats != nil {
		payload.StatsYear = s.Stats.Current().Year
	}
	writeJSON(w, s.logger, http.StatusOK, payload)
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.Store.Snapshot())
}
