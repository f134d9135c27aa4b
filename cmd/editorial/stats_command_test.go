package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"editorial/internal/archive"
	"editorial/internal/directory"
	"editorial/internal/manuscript"
	"editorial/internal/stats"
)

func TestStatsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, args := range [][]string{
		{"manuscript", "add", "--id", "a", "--title", "A", "--authors", "X", "--scope-type", "internal", "--date", "2025-01-10"},
		{"manuscript", "add", "--id", "b", "--title", "B", "--authors", "Y", "--scope-type", "external", "--date", "2025-08-03"},
	} {
		if _, err := env.run(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	out, err := env.run(t, "stats", "--year", "2025", "--json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var got stats.DashboardStats
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.Total != 2 || got.InternalSubmissions != 1 || got.ExternalSubmissions != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
	if got.Reviewers != 4 || got.Editors != 1 {
		t.Fatalf("unexpected directory counts: %+v", got)
	}

	out, err = env.run(t, "stats", "--year", "2025")
	if err != nil {
		t.Fatalf("stats text: %v", err)
	}
	requireContains(t, out, "Submissions 2025")
	requireContains(t, out, "Pre Review")

	out, err = env.run(t, "stats", "set-year", "2024")
	if err != nil {
		t.Fatalf("set-year: %v", err)
	}
	requireContains(t, out, "Dashboard year set to 2024 (0 submissions)")
}

func TestPeopleCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "reviewers", "list")
	if err != nil {
		t.Fatalf("reviewers list: %v", err)
	}
	requireContains(t, out, "Ana Reyes")
	requireContains(t, out, "marine biology")

	out, err = env.run(t, "editors", "list", "--json")
	if err != nil {
		t.Fatalf("editors list: %v", err)
	}
	var people []directory.Person
	if err := json.Unmarshal([]byte(out), &people); err != nil {
		t.Fatalf("decode editors: %v", err)
	}
	if len(people) != 1 || people[0].ID != "e1" {
		t.Fatalf("unexpected editors: %+v", people)
	}
}

func TestExportCommandWritesArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "manuscript", "add", "--id", "x1", "--title", "Seagrass", "--authors", "N. Uy"); err != nil {
		t.Fatalf("add: %v", err)
	}
	dir := t.TempDir()
	out, err := env.run(t, "export", "--dir", dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Exported 1 manuscripts to "+dir)

	matches, err := filepath.Glob(filepath.Join(dir, "editorial-*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one archive file, got %v (err %v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	var doc archive.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode archive: %v", err)
	}
	if doc.Total != 1 || doc.Partitions.Count(manuscript.StatusPreReview) != 1 || doc.Stats == nil {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "Final Proofreading")
	requireContains(t, out, "Data directory")

	out, _, err = runCLI(t, []string{"status"}, "127.0.0.1:1", env.configPath)
	if err != nil {
		t.Fatalf("offline status: %v", err)
	}
	if !strings.Contains(out, "Not running") {
		t.Fatalf("expected offline status, got %q", out)
	}
	requireContains(t, out, "sqlite reachable")
}

func TestCommandsReportUnreachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"manuscript", "list"}, "127.0.0.1:1", env.configPath)
	if err == nil {
		t.Fatal("expected connection error")
	}
	requireContains(t, err.Error(), "start it with `editorial start`")
}
