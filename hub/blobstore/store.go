// Package blobstore implements content-addressed PNG storage: blobs are
// written under a per-device directory, with a bounded digest cache in
// front of the filesystem so a blob whose digest is already known isn't
// re-hashed from disk every time.
package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store writes uploaded PNG blobs under root, one subdirectory per device,
// with a timestamped filename carrying a numeric collision suffix.
type Store struct {
	root  string
	clock func() time.Time
}

// New returns a Store rooted at root, creating it if necessary.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}
	return &Store{root: root, clock: time.Now}, nil
}

// Save writes png under device's directory and returns its relative URL
// (device/filename), suitable for embedding in a ClipboardRecord.ImageURL.
// The filename is `<timestamp>-N.png`, where N is the smallest positive
// integer making the path unused and is always present, never appended
// only on collision.
func (s *Store) Save(device string, png []byte) (string, error) {
	dir := filepath.Join(s.root, device)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create device dir: %w", err)
	}

	// time.Format only substitutes a fractional-second run when it's
	// preceded by a literal '.' or ',' in the layout; the dot is formatted
	// in and then swapped for a hyphen to match the filename template.
	base := s.clock().UTC().Format("2006-01-02-15-04-05.000000")
	base = strings.Replace(base, ".", "-", 1)
	var name, path string
	for n := 1; ; n++ {
		name = fmt.Sprintf("%s-%d.png", base, n)
		path = filepath.Join(dir, name)
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("blobstore: stat candidate: %w", err)
		}
	}

	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("blobstore: write blob: %w", err)
	}
	return filepath.ToSlash(filepath.Join(device, name)), nil
}

// Open returns the absolute filesystem path for a relative image URL
// previously returned by Save. The URL is cleaned as a rooted path first,
// so leading ".." segments cannot leave the store root; an error is
// returned when no file exists at the resolved path.
func (s *Store) Open(relativeURL string) (string, error) {
	clean := filepath.Clean("/" + relativeURL)[1:]
	path := filepath.Join(s.root, clean)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Exists reports whether relativeURL resolves to a blob in the store. It
// satisfies the handlers.ImageURLValidator's injected Exists func.
func (s *Store) Exists(relativeURL string) bool {
	_, err := s.Open(relativeURL)
	return err == nil
}

// Root returns the store's filesystem root, used to back the static
// `/api/images/...` directory-listing handler.
func (s *Store) Root() string {
	return s.root
}

// List returns the filenames a device has uploaded, used by the
// `/api/collection/{device_id}` endpoint.
func (s *Store) List(device string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, device))
	if err != nil {
		return nil, fmt.Errorf("blobstore: list collection: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
