package blobstore

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSaveAndExists(t *testing.T) {
	s := newTestStore(t)
	url, err := s.Save("device-a", []byte("fake png bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists(url) {
		t.Fatalf("Exists(%q) = false, want true right after Save", url)
	}
	if !s.Exists(url) {
		t.Fatalf("Exists should be idempotent")
	}
}

func TestSaveCollisionAvoidance(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.clock = func() time.Time { return fixed }

	url1, err := s.Save("device-a", []byte("one"))
	if err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	url2, err := s.Save("device-a", []byte("two"))
	if err != nil {
		t.Fatalf("Save 2: %v", err)
	}
	if url1 == url2 {
		t.Fatalf("colliding timestamps must produce distinct filenames, got %q twice", url1)
	}
	if filepath.Base(url1) == filepath.Base(url2) {
		t.Fatalf("filenames should differ by their -N suffix: %q vs %q", url1, url2)
	}
}

func TestListSortsByCollection(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save("device-a", []byte("one")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Save("device-a", []byte("two")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	names, err := s.List("device-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("List returned %v, want names in sorted order", names)
	}
}

func TestExistsRejectsPathEscape(t *testing.T) {
	s := newTestStore(t)
	if s.Exists("../../etc/passwd") {
		t.Fatalf("Exists should not resolve paths outside the store root")
	}
	if _, err := os.Stat(filepath.Join(s.root, "..", "escaped")); err == nil {
		t.Fatalf("test setup invariant broken")
	}
}
