package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SampleRoster lists four reviewers and one editor.
const SampleRoster = `
[[reviewers]]
id = "r1"
name = "Ana Reyes"
email = "ana@example.org"
expertise = ["marine biology"]

[[reviewers]]
id = "r2"
name = "Ben Cruz"
email = "ben@example.org"

[[reviewers]]
id = "r3"
name = "Carla Diaz"
email = "carla@example.org"

[[reviewers]]
id = "r4"
name = "Dan Lim"
email = "dan@example.org"

[[editors]]
id = "e1"
name = "Eva Santos"
email = "eva@example.org"
`
