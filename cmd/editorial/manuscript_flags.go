package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"editorial/internal/manuscript"
)

// stringFlag binds a flag whose value only counts when it was set on the
// command line, so an explicit empty string still reaches the patch.
type stringFlag struct {
	name  string
	value string
}

type flagSet struct {
	flags *pflag.FlagSet
	byKey map[string]*stringFlag
}

func newFlagSet(flags *pflag.FlagSet) *flagSet {
	return &flagSet{flags: flags, byKey: make(map[string]*stringFlag)}
}

func (f *flagSet) add(name, usage string) {
	sf := &stringFlag{name: name}
	f.byKey[name] = sf
	f.flags.StringVar(&sf.value, name, "", usage)
}

// ptr returns the flag value when it was supplied.
func (f *flagSet) ptr(name string) *string {
	sf, ok := f.byKey[name]
	if !ok || !f.flags.Changed(name) {
		return nil
	}
	v := strings.TrimSpace(sf.value)
	return &v
}

func (f *flagSet) any(names ...string) bool {
	for _, name := range names {
		if f.flags.Changed(name) {
			return true
		}
	}
	return false
}

func stagePtr(value *string) *manuscript.StageStatus {
	if value == nil {
		return nil
	}
	s := manuscript.StageStatus(strings.ToLower(*value))
	return &s
}

func addLayoutFlags(f *flagSet) {
	f.add("layout-artist", "Layout artist name")
	f.add("layout-email", "Layout artist email")
	f.add("layout-status", "Layout status (pending, in-progress, completed, revised)")
	f.add("date-assigned", "Date layout was assigned (YYYY-MM-DD)")
	f.add("date-finished", "Date layout was finished (YYYY-MM-DD)")
}

func layoutPatch(f *flagSet, withRevision bool) *manuscript.LayoutPatch {
	names := []string{"layout-artist", "layout-email", "layout-status", "date-assigned", "date-finished"}
	if withRevision {
		names = append(names, "revision-status", "revision-comments")
	}
	if !f.any(names...) {
		return nil
	}
	patch := &manuscript.LayoutPatch{
		LayoutArtist:      f.ptr("layout-artist"),
		LayoutArtistEmail: f.ptr("layout-email"),
		Status:            stagePtr(f.ptr("layout-status")),
		DateAssigned:      f.ptr("date-assigned"),
		DateFinished:      f.ptr("date-finished"),
	}
	if withRevision {
		patch.RevisionStatus = f.ptr("revision-status")
		patch.RevisionComments = f.ptr("revision-comments")
	}
	return patch
}

func addProofreadingFlags(f *flagSet) {
	f.add("proofreader", "Proofreader name")
	f.add("proofreader-email", "Proofreader email")
	f.add("proof-status", "Proofreading status (pending, in-progress, completed, revised)")
	f.add("date-sent", "Date sent to the proofreader (YYYY-MM-DD)")
}

func proofreadingPatch(f *flagSet, withRevision bool) *manuscript.ProofreadingPatch {
	names := []string{"proofreader", "proofreader-email", "proof-status", "date-sent"}
	if withRevision {
		names = append(names, "revision-status", "revision-comments")
	}
	if !f.any(names...) {
		return nil
	}
	patch := &manuscript.ProofreadingPatch{
		Proofreader:      f.ptr("proofreader"),
		ProofreaderEmail: f.ptr("proofreader-email"),
		Status:           stagePtr(f.ptr("proof-status")),
		DateSent:         f.ptr("date-sent"),
	}
	if withRevision {
		patch.RevisionStatus = f.ptr("revision-status")
		patch.RevisionComments = f.ptr("revision-comments")
	}
	return patch
}

func addPublishFlags(f *flagSet) {
	f.add("scope-number", "Issue number, or \"Special Issue\"")
	f.add("volume-year", "Volume year")
	f.add("date-published", "Publication date (YYYY-MM-DD)")
	f.add("issue-name", "Special issue name")
}

func publishPatch(f *flagSet) *manuscript.PublishPatch {
	if !f.any("scope-number", "volume-year", "date-published", "issue-name") {
		return nil
	}
	return &manuscript.PublishPatch{
		ScopeNumber:   f.ptr("scope-number"),
		VolumeYear:    f.ptr("volume-year"),
		DatePublished: f.ptr("date-published"),
		IssueName:     f.ptr("issue-name"),
	}
}

func addRevisionFlags(f *flagSet) {
	f.add("revision-status", "Revision status")
	f.add("revision-comments", "Revision comments")
}

func addSubmissionFlags(f *flagSet) {
	f.add("title", "Manuscript title")
	f.add("authors", "Author names")
	f.add("affiliation", "Author affiliation")
	f.add("email", "Corresponding author email")
	f.add("scope", "Subject scope")
	f.add("scope-type", "internal or external")
	f.add("scope-code", "Scope classification code")
}

func submissionPatch(f *flagSet) (manuscript.SubmissionPatch, error) {
	patch := manuscript.SubmissionPatch{
		Title:       f.ptr("title"),
		Authors:     f.ptr("authors"),
		Affiliation: f.ptr("affiliation"),
		Email:       f.ptr("email"),
		Scope:       f.ptr("scope"),
		ScopeCode:   f.ptr("scope-code"),
	}
	if raw := f.ptr("scope-type"); raw != nil {
		scopeType, ok := manuscript.ParseScopeType(*raw)
		if !ok {
			return patch, fmt.Errorf("invalid scope type %q (want internal or external)", *raw)
		}
		patch.ScopeType = &scopeType
	}
	return patch, nil
}

// readPatchFile decodes a JSON patch from path, or stdin when path is "-".
func readPatchFile(path string, out any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read patch file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse patch file: %w", err)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
