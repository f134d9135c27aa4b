// Package client talks to the editorial daemon's HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"editorial/internal/api"
	"editorial/internal/directory"
	"editorial/internal/manuscript"
	"editorial/internal/ratings"
	"editorial/internal/stats"
)

var ErrAPIUnavailable = errors.New("editorial API unavailable")

// APIError is a non-2xx response. It unwraps to the manuscript sentinel that
// matches Kind, so errors.Is(err, manuscript.ErrValidation) works across the
// wire.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
	Problems   []manuscript.FieldProblem
}

func (e *APIError) Error() string {
	if len(e.Problems) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Reason)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *APIError) ErrorKind() string { return e.Kind }

func (e *APIError) Unwrap() error {
	switch e.Kind {
	case manuscript.KindDuplicateID:
		return manuscript.ErrDuplicateID
	case manuscript.KindNotFound:
		return manuscript.ErrRecordNotFound
	case manuscript.KindIllegalTransition:
		return manuscript.ErrIllegalTransition
	case manuscript.KindValidation:
		return manuscript.ErrValidation
	case manuscript.KindPersistence:
		return manuscript.ErrPersistence
	default:
		return nil
	}
}

// Client is a thin JSON client for the daemon API.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New returns a client for bind ("host:port" or a URL). An empty bind
// yields a nil client whose calls fail with ErrAPIUnavailable.
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{
		base:  base,
		http:  &http.Client{Timeout: 30 * time.Second},
		token: strings.TrimSpace(token),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload api.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if jsonErr := json.Unmarshal(data, &payload); jsonErr != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(data))
			if payload.Error == "" {
				payload.Error = http.StatusText(resp.StatusCode)
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Kind: payload.Kind, Message: payload.Error, Problems: payload.Problems}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func manuscriptPath(id string, suffix ...string) string {
	p := "/manuscript/" + url.PathEscape(strings.TrimSpace(id))
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) AddManuscript(ctx context.Context, rec manuscript.Record) (manuscript.Record, error) {
	var out manuscript.Record
	err := c.do(ctx, http.MethodPost, "/manuscript", nil, rec, &out)
	return out, err
}

// List returns one partition, filtered to submissions dated in year when
// year is non-zero.
func (c *Client) List(ctx context.Context, status manuscript.Status, year int) ([]manuscript.Record, error) {
	query := url.Values{"status": {string(status)}}
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}
	var out api.ManuscriptListResponse
	if err := c.do(ctx, http.MethodGet, "/manuscript/step", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

func (c *Client) Get(ctx context.Context, id string) (manuscript.Record, error) {
	var out manuscript.Record
	err := c.do(ctx, http.MethodGet, manuscriptPath(id), nil, nil, &out)
	return out, err
}

func (c *Client) Transition(ctx context.Context, id string, target manuscript.Status, patch manuscript.Patch) (manuscript.Record, error) {
	var out manuscript.Record
	err := c.do(ctx, http.MethodPut, manuscriptPath(id), nil, api.TransitionRequest{Status: target, Patch: patch}, &out)
	return out, err
}

func (c *Client) UpdateLayout(ctx context.Context, id string, patch manuscript.LayoutPatch) (manuscript.Record, error) {
	var out manuscript.Record
	err := c.do(ctx, http.MethodPut, manuscriptPath(id, "layout"), nil, patch, &out)
	return out, err
}

func (c *Client) UpdateProofreading(ctx context.Context, id string, patch manuscript.ProofreadingPatch) (manuscript.Record, error) {
	var out manuscript.Record
	err := c.do(ctx, http.MethodPut, manuscriptPath(id, "proofreading"), nil, patch, &out)
	return out, err
}

func (c *Client) UpdatePayment(ctx context.Context, id string, status manuscript.PaymentStatus) (manuscript.Record, error) {
	var out manuscript.Record
	err := c.do(ctx, http.MethodPut, manuscriptPath(id, "payment"), nil, api.PaymentRequest{PaymentStatus: status}, &out)
	return out, err
}

func (c *Client) EditSubmission(ctx context.Context, id string, patch manuscript.SubmissionPatch) (manuscript.Record, error) {
	var out manuscript.Record
	err := c.do(ctx, http.MethodPut, manuscriptPath(id, "submission"), nil, patch, &out)
	return out, err
}

// Withdraw removes a pre-review manuscript, reporting whether it was there.
func (c *Client) Withdraw(ctx context.Context, id string) (bool, error) {
	var out api.WithdrawResponse
	if err := c.do(ctx, http.MethodDelete, manuscriptPath(id), nil, nil, &out); err != nil {
		return false, err
	}
	return out.Removed, nil
}

func (c *Client) Reviewers(ctx context.Context) ([]directory.Person, error) {
	return c.people(ctx, "/reviewers")
}

func (c *Client) Editors(ctx context.Context) ([]directory.Person, error) {
	return c.people(ctx, "/editors")
}

func (c *Client) people(ctx context.Context, path string) ([]directory.Person, error) {
	var out api.PeopleResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.People, nil
}

func (c *Client) Rate(ctx context.Context, r ratings.Rating) (ratings.Rating, error) {
	var out ratings.Rating
	err := c.do(ctx, http.MethodPost, "/ratings", nil, r, &out)
	return out, err
}

func (c *Client) Ratings(ctx context.Context, manuscriptID string) (api.RatingsResponse, error) {
	var out api.RatingsResponse
	err := c.do(ctx, http.MethodGet, "/ratings", url.Values{"manuscriptId": {manuscriptID}}, nil, &out)
	return out, err
}

func (c *Client) SendMail(ctx context.Context, to, subject, body string) error {
	return c.do(ctx, http.MethodPost, "/mail", nil, api.MailRequest{To: to, Subject: subject, Body: body}, nil)
}

// Stats returns the dashboard for year, or the selected year when zero.
func (c *Client) Stats(ctx context.Context, year int) (stats.DashboardStats, error) {
	var query url.Values
	if year > 0 {
		query = url.Values{"year": {strconv.Itoa(year)}}
	}
	var out stats.DashboardStats
	err := c.do(ctx, http.MethodGet, "/dashboard/stats", query, nil, &out)
	return out, err
}

func (c *Client) SetYear(ctx context.Context, year int) (stats.DashboardStats, error) {
	var out stats.DashboardStats
	err := c.do(ctx, http.MethodPut, "/dashboard/year", nil, api.YearRequest{Year: year}, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

func (c *Client) Snapshot(ctx context.Context) (manuscript.Partitions, error) {
	var out manuscript.Partitions
	err := c.do(ctx, http.MethodGet, "/api/snapshot", nil, nil, &out)
	return out, err
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
