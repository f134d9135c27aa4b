package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"editorial/internal/client"
	"editorial/internal/manuscript"
)

func manuscriptRows(records []manuscript.Record, colorize bool) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			truncate(rec.Title, 48),
			truncate(rec.Authors, 32),
			colorStatus(rec.Status, colorize),
			rec.Date,
		})
	}
	return rows
}

func printRecord(out io.Writer, rec manuscript.Record) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader(rec.Title, colorize) {
		fmt.Fprintln(out, line)
	}
	rows := [][]string{
		{"ID", rec.ID},
		{"Status", colorStatus(rec.Status, colorize)},
		{"Authors", rec.Authors},
		{"Affiliation", rec.Affiliation},
		{"Email", rec.Email},
		{"Scope", joinNonEmpty(" / ", rec.Scope, string(rec.ScopeType), rec.ScopeCode)},
		{"Submitted", rec.Date},
		{"Reviewers", strings.Join(rec.Reviewers, ", ")},
		{"Revision", joinNonEmpty(": ", rec.RevisionStatus, rec.RevisionComments)},
		{"Rejection", joinNonEmpty(": ", rec.RejectionReason, rec.RejectionComment)},
	}
	if l := rec.Layout; l != nil {
		rows = append(rows,
			[]string{"Layout", joinNonEmpty(" ", l.LayoutArtist, angle(l.LayoutArtistEmail))},
			[]string{"Layout status", joinNonEmpty(", ", string(l.Status), l.DateAssigned, l.DateFinished)},
		)
	}
	if p := rec.Proofreading; p != nil {
		rows = append(rows,
			[]string{"Proofreading", joinNonEmpty(" ", p.Proofreader, angle(p.ProofreaderEmail))},
			[]string{"Proof status", joinNonEmpty(", ", string(p.Status), p.DateSent)},
		)
	}
	if p := rec.Publish; p != nil {
		rows = append(rows,
			[]string{"Published", joinNonEmpty(", ", p.DatePublished, "Vol. "+p.VolumeYear, "No. "+p.ScopeNumber, p.IssueName)},
			[]string{"Payment", string(p.PaymentStatus)},
		)
	}
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, row[0]+":", row[1])
	}
}

// problemList prints validation problems one per line.
type problemList struct {
	*client.APIError
}

func (p problemList) Error() string {
	var b strings.Builder
	b.WriteString(p.Message)
	for _, prob := range p.Problems {
		fmt.Fprintf(&b, "\n  - %s: %s", prob.Field, prob.Reason)
	}
	return b.String()
}

func (p problemList) Unwrap() error { return p.APIError }

func describeError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Problems) == 0 {
		return err
	}
	return problemList{apiErr}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == "Vol." || p == "No." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, sep)
}

func angle(email string) string {
	if strings.TrimSpace(email) == "" {
		return ""
	}
	return "<" + email + ">"
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
