// Package ratings records reviewer scores for manuscripts under double-blind
// review.
package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"editorial/internal/logging"
	"editorial/internal/manuscript"
	"editorial/internal/persistence"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one reviewer's score for one manuscript.
type Rating struct {
	ID           string    `json:"id"`
	ManuscriptID string    `json:"manuscriptId"`
	ReviewerID   string    `json:"reviewerId"`
	Score        int       `json:"score"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RecordSource looks up manuscripts.
type RecordSource interface {
	Get(id string) (manuscript.Record, error)
}

// Service stores ratings. A reviewer rating the same manuscript again
// replaces the earlier rating.
type Service struct {
	mu      sync.Mutex
	ratings []Rating

	records RecordSource
	adapter persistence.Adapter
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Service.
type Option func(*Service)

func WithAdapter(adapter persistence.Adapter) Option {
	return func(s *Service) { s.adapter = adapter }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Open builds a service and loads saved ratings from the adapter.
func Open(ctx context.Context, records RecordSource, opts ...Option) (*Service, error) {
	s := &Service{records: records, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "ratings")
	if s.adapter == nil {
		return s, nil
	}
	payload, found, err := s.adapter.Load(ctx, persistence.RatingsKey)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	if found && len(payload) > 0 {
		if err := json.Unmarshal(payload, &s.ratings); err != nil {
			return nil, fmt.Errorf("decode ratings: %w", err)
		}
	}
	return s, nil
}

// Submit validates and stores r. The manuscript must be in double-blind review
// with r.ReviewerID among its reviewers.
func (s *Service) Submit(ctx context.Context, r Rating) (Rating, error) {
	r.ManuscriptID = strings.TrimSpace(r.ManuscriptID)
	r.ReviewerID = strings.TrimSpace(r.ReviewerID)
	r.Comment = strings.TrimSpace(r.Comment)

	var problems []manuscript.FieldProblem
	if r.ManuscriptID == "" {
		problems = append(problems, manuscript.FieldProblem{Field: "manuscriptId", Reason: "is required"})
	}
	if r.ReviewerID == "" {
		problems = append(problems, manuscript.FieldProblem{Field: "reviewerId", Reason: "is required"})
	}
	if r.Score < MinScore || r.Score > MaxScore {
		problems = append(problems, manuscript.FieldProblem{
			Field:  "score",
			Reason: fmt.Sprintf("must be between %d and %d", MinScore, MaxScore),
		})
	}
	if len(problems) > 0 {
		return Rating{}, &manuscript.ValidationError{Problems: problems}
	}

	rec, err := s.records.Get(r.ManuscriptID)
	if err != nil {
		return Rating{}, err
	}
	if rec.Status != manuscript.StatusDoubleBlind {
		return Rating{}, &manuscript.ValidationError{Problems: []manuscript.FieldProblem{{
			Field:  "manuscriptId",
			Reason: fmt.Sprintf("manuscript is %s; ratings are accepted during double-blind review", rec.Status),
		}}}
	}
	if !slices.Contains(rec.Reviewers, r.ReviewerID) {
		return Rating{}, &manuscript.ValidationError{Problems: []manuscript.FieldProblem{{
			Field:  "reviewerId",
			Reason: "reviewer is not assigned to this manuscript",
		}}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.ratings)
	idx := slices.IndexFunc(next, func(existing Rating) bool {
		return existing.ManuscriptID == r.ManuscriptID && existing.ReviewerID == r.ReviewerID
	})
	r.CreatedAt = s.now().UTC()
	if idx >= 0 {
		r.ID = next[idx].ID
		next[idx] = r
	} else {
		r.ID = s.newID()
		next = append(next, r)
	}

	if err := s.save(ctx, next); err != nil {
		return Rating{}, err
	}
	s.ratings = next
	s.logger.Info("rating recorded",
		logging.String(logging.FieldManuscriptID, r.ManuscriptID),
		logging.String("reviewer_id", r.ReviewerID),
		logging.Int("score", r.Score),
	)
	return r, nil
}

func (s *Service) save(ctx context.Context, ratings []Rating) error {
	if s.adapter == nil {
		return nil
	}
	payload, err := json.Marshal(ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	if err := s.adapter.Save(ctx, persistence.RatingsKey, payload); err != nil {
		return &manuscript.PersistenceError{Op: "rate", Keys: []string{persistence.RatingsKey}, Err: err}
	}
	return nil
}

// ListFor returns the ratings of one manuscript, oldest first.
func (s *Service) ListFor(manuscriptID string) []Rating {
	manuscriptID = strings.TrimSpace(manuscriptID)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Rating
	for _, r := range s.ratings {
		if r.ManuscriptID == manuscriptID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Rating) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// Average returns the mean score of a manuscript and how many ratings it has.
func (s *Service) Average(manuscriptID string) (float64, int) {
	list := s.ListFor(manuscriptID)
	if len(list) == 0 {
		return 0, 0
	}
	total := 0
	for _, r := range list {
		total += r.Score
	}
	return float64(total) / float64(len(list)), len(list)
}
