package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the cached payload format changes; stale entries then read
// as misses instead of mis-decoding.
const cacheSchemaVersion uint16 = 1

// Key addresses a cache entry: the sha256 of the raw bundle bytes.
type Key [32]byte

func cacheKey(data []byte) Key {
	return sha256.Sum256(data)
}

// Cache stores decoded bundles on disk keyed by content hash, so
// repeated explains of an unchanged bundle skip the TOML parse.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema uint16
	Bundle Bundle
}

// OpenCache initializes a cache rooted at dir. An empty dir selects the
// standard per-user location: $XDG_CACHE_HOME/tenure, falling back to
// ~/.cache/tenure.
func OpenCache(dir string) (*Cache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "tenure")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "bundles", hex.EncodeToString(key[:])+".mp")
}

// Get reads the cached bundle for key into out. A missing entry or a
// schema mismatch is a miss, not an error.
func (c *Cache) Get(key Key, out *Bundle) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return false, err
	}
	if payload.Schema != cacheSchemaVersion {
		return false, nil
	}
	*out = payload.Bundle
	return true, nil
}

// Put serializes the bundle under key, replacing the entry atomically.
func (c *Cache) Put(key Key, b *Bundle) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	payload := cachePayload{Schema: cacheSchemaVersion, Bundle: *b}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}
