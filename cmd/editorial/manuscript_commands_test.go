package main

import (
	"encoding/json"
	"errors"
	"testing"

	"editorial/internal/manuscript"
)

func TestManuscriptWorkflowCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "manuscript", "add", "--id", "m1", "--title", "Coral Bleaching Trends",
		"--authors", "R. Santos", "--email", "rsantos@example.org", "--scope-type", "internal", "--date", "2025-02-14")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Manuscript m1 added to Pre Review")

	out, err = env.run(t, "manuscript", "list", "--status", "pre-review")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Coral Bleaching Trends")

	out, err = env.run(t, "manuscript", "move", "m1", "double-blind", "--reviewers", "r1, r2")
	if err != nil {
		t.Fatalf("move double-blind: %v", err)
	}
	requireContains(t, out, "moved to Double Blind")

	_, err = env.run(t, "manuscript", "move", "m1", "accepted")
	if err == nil {
		t.Fatal("expected validation error without layout details")
	}
	requireContains(t, err.Error(), "layoutDetails.layoutArtist")
	if !errors.Is(err, manuscript.ErrValidation) {
		t.Fatalf("expected validation sentinel, got %v", err)
	}

	if _, err := env.run(t, "manuscript", "move", "m1", "accepted",
		"--layout-artist", "Lia Torres", "--layout-email", "lia@example.org"); err != nil {
		t.Fatalf("move accepted: %v", err)
	}
	if _, err := env.run(t, "manuscript", "layout", "m1", "--layout-status", "in-progress"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	out, err = env.run(t, "manuscript", "show", "m1", "--json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var rec manuscript.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode show output: %v", err)
	}
	if rec.Status != manuscript.StatusAccepted || rec.Layout == nil || rec.Layout.Status != manuscript.StageInProgress {
		t.Fatalf("unexpected record: %+v", rec)
	}

	out, err = env.run(t, "manuscript", "show", "m1")
	if err != nil {
		t.Fatalf("show text: %v", err)
	}
	requireContains(t, out, "Lia Torres <lia@example.org>")
}

func TestManuscriptMoveRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := env.run(t, "manuscript", "move", "m1", "limbo")
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	requireContains(t, err.Error(), "unknown status")
}

func TestManuscriptReviseAndWithdraw(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "manuscript", "add", "--id", "m2", "--title", "Mangrove Carbon", "--authors", "L. Cruz"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := env.run(t, "manuscript", "revise", "m2", "--revision-status", "minor", "--revision-comments", "fix figure 2")
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	requireContains(t, out, "revised in Pre Review")

	out, err = env.run(t, "manuscript", "withdraw", "m2")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	requireContains(t, out, "Manuscript m2 withdrawn")

	out, err = env.run(t, "manuscript", "withdraw", "m2")
	if err != nil {
		t.Fatalf("withdraw again: %v", err)
	}
	requireContains(t, out, "not found in pre-review")

	_, err = env.run(t, "manuscript", "show", "m2")
	if !errors.Is(err, manuscript.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRateAndRatingsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "manuscript", "add", "--id", "m3", "--title", "Reef Acoustics", "--authors", "K. Lim"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := env.run(t, "manuscript", "move", "m3", "double-blind", "--reviewers", "r1,r3"); err != nil {
		t.Fatalf("move: %v", err)
	}

	out, err := env.run(t, "rate", "m3", "4", "--reviewer", "r1", "--comment", "solid methods")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	requireContains(t, out, "Rated m3: 4/5 by r1")

	if _, err := env.run(t, "rate", "m3", "4", "--reviewer", "r2"); err == nil {
		t.Fatal("expected error for unassigned reviewer")
	}

	out, err = env.run(t, "ratings", "m3")
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	requireContains(t, out, "solid methods")
	requireContains(t, out, "4.00")
}
