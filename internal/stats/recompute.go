package stats

import (
	"time"

	"editorial/internal/manuscript"
)

// MonthCount is one histogram bucket.
type MonthCount struct {
	Month string `json:"name"`
	Value int    `json:"value"`
}

// DashboardStats is the derived dashboard view. It is never edited by hand.
type DashboardStats struct {
	Year                int                       `json:"year"`
	Version             uint64                    `json:"version"`
	Total               int                       `json:"total"`
	Partitions          map[manuscript.Status]int `json:"partitions"`
	Reviewers           int                       `json:"reviewers"`
	Editors             int                       `json:"editors"`
	InternalSubmissions int                       `json:"internalSubmissions"`
	ExternalSubmissions int                       `json:"externalSubmissions"`
	FirstHalf           []MonthCount              `json:"firstHalf"`
	SecondHalf          []MonthCount              `json:"secondHalf"`
}

// Count returns the size of one partition.
func (d DashboardStats) Count(status manuscript.Status) int {
	return d.Partitions[status]
}

// Month returns the bucket value for month (1-12).
func (d DashboardStats) Month(month time.Month) int {
	idx := int(month) - 1
	switch {
	case idx >= 0 && idx < 6 && idx < len(d.FirstHalf):
		return d.FirstHalf[idx].Value
	case idx >= 6 && idx < 12 && idx-6 < len(d.SecondHalf):
		return d.SecondHalf[idx-6].Value
	default:
		return 0
	}
}

// scopedStatuses are the partitions whose records count toward the
// internal/external submission totals.
var scopedStatuses = []manuscript.Status{
	manuscript.StatusPreReview,
	manuscript.StatusDoubleBlind,
}

// Recompute derives DashboardStats from p. Records whose date does not parse
// are left out of the histogram.
func Recompute(p manuscript.Partitions, reviewers, editors, year int) DashboardStats {
	out := DashboardStats{
		Year:       year,
		Version:    p.Version,
		Partitions: make(map[manuscript.Status]int, len(manuscript.AllStatuses())),
		Reviewers:  reviewers,
		Editors:    editors,
	}

	var months [12]int
	for _, status := range manuscript.AllStatuses() {
		records := p.Get(status)
		out.Partitions[status] = len(records)
		out.Total += len(records)
		for _, rec := range records {
			ts, ok := manuscript.ParseDate(rec.Date)
			if !ok || ts.Year() != year {
				continue
			}
			months[int(ts.Month())-1]++
		}
	}

	for _, status := range scopedStatuses {
		for _, rec := range p.Get(status) {
			switch rec.ScopeType {
			case manuscript.ScopeInternal:
				out.InternalSubmissions++
			case manuscript.ScopeExternal:
				out.ExternalSubmissions++
			}
		}
	}

	out.FirstHalf = buckets(months[:6], time.January)
	out.SecondHalf = buckets(months[6:], time.July)
	return out
}

func buckets(values []int, first time.Month) []MonthCount {
	out := make([]MonthCount, len(values))
	for i, value := range values {
		out[i] = MonthCount{Month: (first + time.Month(i)).String()[:3], Value: value}
	}
	return out
}
