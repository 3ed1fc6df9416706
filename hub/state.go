// Package main wires together the hub's global state: the shared,
// lock-protected view of which devices are online and have ever been
// seen, plus handles onto the index, blob store, and broadcaster every
// HTTP and WebSocket handler needs.
//
// WHY a dedicated struct:
// A single place holding everything a request handler needs, instead of
// smearing shared mutable state across package-level variables. Every
// field that changes at runtime is guarded by mu.
package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/clipharbor/hub/hub/blobstore"
	"github.com/clipharbor/hub/hub/index"
	"github.com/clipharbor/hub/shared/handlers"
	"github.com/clipharbor/hub/shared/models"
	"github.com/opencontainers/go-digest"
	log "github.com/sirupsen/logrus"
)

// digestText returns the hex SHA-512 digest of a text record's UTF-8
// content, used as its id.
func digestText(text string) string {
	return digest.SHA512.FromString(text).Encoded()
}

// State holds every piece of shared, mutable hub state behind a single
// RWMutex: online and everSeen are read and written together often enough
// (a device connecting adds to both) that splitting them into separate
// locks would only add complexity without reducing contention.
type State struct {
	mu sync.RWMutex
	// online holds device IDs with a currently active WebSocket session.
	online map[string]struct{}
	// everSeen holds every device ID the hub has ever observed, seeded at
	// startup from the index's recent documents and grown as new devices
	// connect. WHY a separate set from online: a device that disconnects
	// should still appear in device-list responses, just not
	// online-device-list ones. online is always a subset of everSeen.
	everSeen map[string]struct{}

	broadcaster *Broadcaster
	workers     *WorkerPool
	index       *index.Engine
	blobs       *blobstore.Store
	digests     *blobstore.DigestCache
	validators  []handlers.ContentValidator
}

// NewState builds a State seeded from idx's recent documents, matching the
// original's startup behavior of priming ever_seen from persisted history
// rather than starting with an empty device list after every restart.
func NewState(idx *index.Engine, blobs *blobstore.Store, digests *blobstore.DigestCache, broadcaster *Broadcaster, workers *WorkerPool) (*State, error) {
	sources, err := idx.RecentSources(1000)
	if err != nil {
		return nil, err
	}

	everSeen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		everSeen[s] = struct{}{}
	}

	return &State{
		online:      make(map[string]struct{}),
		everSeen:    everSeen,
		broadcaster: broadcaster,
		workers:     workers,
		index:       idx,
		blobs:       blobs,
		digests:     digests,
		validators: []handlers.ContentValidator{
			handlers.NewTextValidator(),
			handlers.NewImageURLValidator(blobs.Exists),
		},
	}, nil
}

// Validate runs rec through its matching ContentValidator: empty text,
// empty image URL, and an image URL with no backing file are all rejected
// here rather than at a later stage.
func (s *State) Validate(rec models.ClipboardRecord) error {
	for _, v := range s.validators {
		if v.CanHandle(rec) {
			return v.Validate(rec)
		}
	}
	return fmt.Errorf("no validator for record")
}

// MarkOnline records deviceID as connected and ever-seen. Called when a
// WebSocket session reaches the Active state.
func (s *State) MarkOnline(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[deviceID] = struct{}{}
	s.everSeen[deviceID] = struct{}{}
}

// MarkOffline removes deviceID from the online set. everSeen is untouched:
// a device remains "ever seen" after it disconnects.
func (s *State) MarkOffline(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.online, deviceID)
}

// OnlineDevices returns a snapshot of currently connected device IDs.
func (s *State) OnlineDevices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	return out
}

// AllDevices returns a snapshot of every device ID ever seen.
func (s *State) AllDevices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.everSeen))
	for id := range s.everSeen {
		out = append(out, id)
	}
	return out
}

// AddEntry assigns msg's content digest if it doesn't already carry one,
// publishes the mutated message to every other connected device, and
// then indexes it on the worker pool (indexing is a blocking SQLite call),
// waiting for that write to finish before returning. Live delivery is never held
// hostage to durable capture: the broadcast happens unconditionally, and
// an index write failure is only logged, never surfaced to the caller or
// allowed to suppress the broadcast that already went out. Duplicate IDs
// are not rejected here either; the index itself silently drops a
// duplicate insert.
func (s *State) AddEntry(msg models.ClipboardMessage) (models.ClipboardMessage, error) {
	if msg.Entry.ID == "" {
		id, err := s.digestFor(msg.Entry)
		if err != nil {
			return msg, err
		}
		msg.Entry.ID = id
	}

	s.everSeenAdd(msg.Entry.Source)
	s.broadcaster.Publish(&msg, msg.Entry.Source)

	if err := s.workers.Submit(func() error {
		return s.index.AddEntry(msg)
	}); err != nil {
		log.WithFields(log.Fields{"id": msg.Entry.ID, "source": msg.Entry.Source, "error": err}).
			Error("index write failed after broadcast")
	}

	return msg, nil
}

// digestFor computes the content digest that becomes a record's id: a
// SHA-512 of the UTF-8 text for text entries, or the on-disk PNG's digest
// (via the shared digest cache) for image entries. A missing or
// zero-byte image file resolves to the empty sentinel rather than a Go
// error; digestFor rejects that the same way it rejects any other lookup
// failure.
func (s *State) digestFor(rec models.ClipboardRecord) (string, error) {
	if !rec.IsImage() {
		return digestText(rec.Text), nil
	}
	path, err := s.blobs.Open(rec.ImageURL)
	if err != nil {
		return "", err
	}
	var dg digest.Digest
	if err := s.workers.Submit(func() error {
		var err error
		dg, err = s.digests.Digest(path)
		return err
	}); err != nil {
		return "", err
	}
	if dg == "" {
		return "", fmt.Errorf("state: empty digest for image %q", rec.ImageURL)
	}
	return dg.Encoded(), nil
}

// Query runs p against the index on the worker pool and primes the digest
// cache for every image result's on-disk path, so a later image-url
// message naming the same file gets its id without re-hashing from disk.
func (s *State) Query(p models.QueryParams) (models.QueryResult, error) {
	var result models.QueryResult
	err := s.workers.Submit(func() error {
		var err error
		result, err = s.index.Query(p)
		return err
	})
	if err != nil {
		return result, err
	}
	for _, m := range result.Data {
		if !m.Entry.IsImage() {
			continue
		}
		path, err := s.blobs.Open(m.Entry.ImageURL)
		if err != nil {
			continue
		}
		if _, err := s.digests.Digest(path); err != nil {
			log.WithFields(log.Fields{"path": path, "error": err}).Warn("failed to prime digest cache from query result")
		}
	}
	return result, nil
}

func (s *State) everSeenAdd(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.everSeen[deviceID] = struct{}{}
}

// imageRoot returns the blob store's filesystem root, used by the static
// image-serving route.
func (s *State) imageRoot() string {
	return s.blobs.Root()
}

// Now is overridable in tests; production code always calls time.Now.
var Now = time.Now
