package driver

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"

	"doccheck/internal/diag"
)

// Current schema version - increment when CacheEntry format changes
const diskCacheSchemaVersion uint16 = 1

// CacheEntry is the stored outcome of checking one file: its remapped
// messages and extraction counts.
type CacheEntry struct {
	Schema    uint16
	Path      string
	Documents int
	Skipped   int
	Messages  []diag.Message
}

// DiskCache stores entries on disk, one msgpack file per digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache opens the cache at dir, or $XDG_CACHE_HOME/app when dir is empty.
func OpenDiskCache(app, dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "files", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes an entry, replacing the file atomically.
func (c *DiskCache) Put(key Digest, entry *CacheEntry) (err error) {
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
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	stored := *entry
	stored.Schema = diskCacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(&stored); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads an entry. Entries written by another schema version are misses.
func (c *DiskCache) Get(key Digest) (*CacheEntry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var entry CacheEntry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, err
	}
	if entry.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	return &entry, true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Cache is a bounded in-memory LRU in front of an optional DiskCache.
type Cache struct {
	mem  *lru.Cache[Digest, *CacheEntry]
	disk *DiskCache

	hits, misses atomic.Int64
}

// NewCache creates a cache holding up to size entries in memory. disk may be nil.
func NewCache(size int, disk *DiskCache) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	mem, err := lru.New[Digest, *CacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{mem: mem, disk: disk}, nil
}

// Get looks in memory first, then on disk; disk hits are promoted.
// Disk read errors count as misses.
func (c *Cache) Get(key Digest) (*CacheEntry, bool) {
	if c == nil {
		return nil, false
	}
	if entry, ok := c.mem.Get(key); ok {
		c.count(true)
		return entry, true
	}
	entry, ok, err := c.disk.Get(key)
	if err != nil || !ok {
		c.count(false)
		return nil, false
	}
	c.mem.Add(key, entry)
	c.count(true)
	return entry, true
}

// Put stores entry in memory and on disk.
func (c *Cache) Put(key Digest, entry *CacheEntry) error {
	if c == nil {
		return nil
	}
	c.mem.Add(key, entry)
	return c.disk.Put(key, entry)
}

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) count(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}
