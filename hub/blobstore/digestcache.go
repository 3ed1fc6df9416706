package blobstore

import (
	"fmt"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opencontainers/go-digest"
)

// DigestCache memoizes path -> content digest, avoiding a re-hash of
// unchanged blobs on repeat lookups: a bounded, size-evicting cache with
// no TTL, since blob files are immutable once written.
type DigestCache struct {
	cache *lru.Cache[string, digest.Digest]
}

// NewDigestCache returns a cache holding at most size entries.
func NewDigestCache(size int) (*DigestCache, error) {
	c, err := lru.New[string, digest.Digest](size)
	if err != nil {
		return nil, fmt.Errorf("blobstore: new digest cache: %w", err)
	}
	return &DigestCache{cache: c}, nil
}

// Digest returns the SHA-512 digest of the file at path, consulting the
// cache first. A cache miss streams the file in chunks rather than
// slurping it whole, so large uploads don't balloon memory use.
//
// A missing or zero-byte file yields the empty digest sentinel ("", nil)
// rather than a Go error: callers treat an empty digest as "not found"
// and reject the operation, the same way a missing/empty file resolves
// to an empty id instead of a propagated error.
func (d *DigestCache) Digest(path string) (digest.Digest, error) {
	if dg, ok := d.cache.Get(path); ok {
		return dg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil
	}
	defer f.Close()

	digester := digest.SHA512.Digester()
	var total int64
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			total += int64(n)
			if _, werr := digester.Hash().Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("blobstore: hash chunk: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("blobstore: read chunk: %w", err)
		}
	}
	if total == 0 {
		return "", nil
	}

	dg := digester.Digest()
	d.cache.Add(path, dg)
	return dg, nil
}

// DigestBytes hashes an in-memory blob directly, used on upload before the
// file has a stable path to cache under.
func DigestBytes(b []byte) digest.Digest {
	return digest.SHA512.FromBytes(b)
}
