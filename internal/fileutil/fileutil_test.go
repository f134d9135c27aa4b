package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "snapshot.json")

	content := []byte(`{"version":1}`)
	if err := WriteFileAtomic(dst, content, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}

	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFileAtomic(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(dst, []byte("new"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("expected replaced content, got %q", got)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %o", info.Mode().Perm())
	}
}

func TestVerifyFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(dst, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := VerifyFile(dst, []byte("payload")); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := VerifyFile(dst, []byte("payloaD")); err == nil {
		t.Fatal("expected hash mismatch")
	}
	if err := VerifyFile(dst, []byte("short")); err == nil {
		t.Fatal("expected size mismatch")
	}
}

func TestChecksumStable(t *testing.T) {
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Checksum(nil); got != want {
		t.Fatalf("checksum of empty input = %s, want %s", got, want)
	}
}
