// Package cache persists built kd-trees as zip archives so that meshes only
// need to be partitioned once.
//
// Each cache entry holds two files: the kd-tree stream and a gob encoded
// Entry with the build stats. Entries are written to a temporary file and
// renamed into place so readers never observe partial archives.
package cache

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/mesh"
)

const (
	treeFile  = "tree.bin"
	entryFile = "entry.gob"

	numShards = 32
)

var (
	// ErrMiss is returned by Load when no entry exists for a key.
	ErrMiss = errors.New("cache: entry not found")
)

// Entry describes a cached tree.
type Entry struct {
	Key     string
	Source  string
	Created time.Time
	Stats   kdtree.Stats
}

// Cache stores kd-trees in a directory. Operations on the same key are
// serialized; different keys only contend when they share a lock shard.
type Cache struct {
	logger log.Logger
	dir    string
	locks  [numShards]sync.Mutex
}

// New creates a cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return &Cache{
		logger: log.New("cache"),
		dir:    dir,
	}, nil
}

// MeshKey derives a cache key from the mesh geometry and the build options
// that influence the tree shape.
func MeshKey(m *mesh.Mesh, opts kdtree.Options) string {
	h := sha256.New()
	binary.Write(h, binary.LittleEndian, uint64(len(m.Vertices)))
	binary.Write(h, binary.LittleEndian, m.Vertices)
	binary.Write(h, binary.LittleEndian, uint64(len(m.Indices)))
	binary.Write(h, binary.LittleEndian, m.Indices)
	binary.Write(h, binary.LittleEndian, []float32{opts.TraversalCost, opts.EmptySideDiscount, opts.Epsilon})
	binary.Write(h, binary.LittleEndian, opts.ElementWise)
	return hex.EncodeToString(h.Sum(nil))
}

// Path returns the archive path for a key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+".zip")
}

func (c *Cache) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &c.locks[h.Sum32()%numShards]
}

// Store writes the tree held by b under key.
func (c *Cache) Store(key, source string, b *kdtree.Builder) error {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()
	return c.store(key, source, b)
}

// Load reads the tree stored under key. It returns ErrMiss if the entry
// does not exist.
func (c *Cache) Load(key string) (*kdtree.Collider, *Entry, error) {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()
	return c.load(key)
}

// LoadOrBuild returns the cached tree for key. On a miss, or if the cached
// entry can not be read, build is invoked and its tree is stored before
// being loaded.
func (c *Cache) LoadOrBuild(key, source string, build func() *kdtree.Builder) (*kdtree.Collider, *Entry, error) {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	collider, entry, err := c.load(key)
	switch {
	case err == nil:
		c.logger.Infof("loaded tree for %s from cache", source)
		return collider, entry, nil
	case errors.Is(err, ErrMiss):
		c.logger.Infof("no cached tree for %s; building", source)
	default:
		c.logger.Warningf("discarding unreadable cache entry %s: %v", c.Path(key), err)
	}

	b := build()
	if err = c.store(key, source, b); err != nil {
		return nil, nil, err
	}
	b.Release()
	return c.load(key)
}

func (c *Cache) store(key, source string, b *kdtree.Builder) error {
	start := time.Now()

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err = writeArchive(tmp, key, source, b); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err = os.Rename(tmp.Name(), c.Path(key)); err != nil {
		return fmt.Errorf("cache: commit %s: %w", key, err)
	}

	c.logger.Debugf("stored tree %s in %d ms", key, time.Since(start).Nanoseconds()/1e6)
	return nil
}

func writeArchive(w io.Writer, key, source string, b *kdtree.Builder) error {
	zw := zip.NewWriter(w)

	tw, err := zw.Create(treeFile)
	if err != nil {
		return err
	}
	if err = b.Save(tw); err != nil {
		return err
	}

	ew, err := zw.Create(entryFile)
	if err != nil {
		return err
	}
	entry := Entry{
		Key:     key,
		Source:  source,
		Created: time.Now(),
		Stats:   b.Stats(),
	}
	if err = gob.NewEncoder(ew).Encode(&entry); err != nil {
		return err
	}

	return zw.Close()
}

func (c *Cache) load(key string) (*kdtree.Collider, *Entry, error) {
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrMiss
		}
		return nil, nil, fmt.Errorf("cache: read %s: %w", key, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("cache: read %s: %w", key, err)
	}

	var collider *kdtree.Collider
	var entry *Entry
	for _, f := range zr.File {
		switch f.Name {
		case treeFile, entryFile:
		default:
			c.logger.Warningf("unknown file %s in cache entry %s; skipping", f.Name, key)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("cache: open %s/%s: %w", key, f.Name, err)
		}
		switch f.Name {
		case treeFile:
			collider, err = kdtree.Load(rc)
		case entryFile:
			entry = &Entry{}
			err = gob.NewDecoder(rc).Decode(entry)
		}
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("cache: load %s/%s: %w", key, f.Name, err)
		}
	}

	if collider == nil || entry == nil {
		return nil, nil, fmt.Errorf("cache: entry %s is incomplete", key)
	}

	c.logger.Debugf("loaded tree %s in %d ms", key, time.Since(start).Nanoseconds()/1e6)
	return collider, entry, nil
}
