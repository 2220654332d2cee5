package archivetree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mlapaglia/borgitory-go/internal/borgcmd"
	"github.com/mlapaglia/borgitory-go/internal/executor"
)

// key identifies one cached tree by repository path and archive name.
type key struct {
	repoPath string
	archive  string
}

// entry bundles a tree with the bookkeeping needed to decide whether a
// requested path has already been loaded, and a dedicated mutex so two
// concurrent readers never build the same tree twice (spec §4.G, §9
// "per-key mutex protects tree construction").
type entry struct {
	mu          sync.Mutex
	tree        *Tree
	rootLoaded  bool
	loadedPaths map[string]bool
}

// Cache owns one Tree per (repository, archive) key, lazily built on
// first access.
type Cache struct {
	mu      sync.Mutex
	entries map[key]*entry
	runner  executor.Runner
}

// NewCache constructs an empty Cache. runner is used to invoke the
// `borg list` commands that populate trees on demand.
func NewCache(runner executor.Runner) *Cache {
	return &Cache{
		entries: make(map[key]*entry),
		runner:  runner,
	}
}

func (c *Cache) entryFor(repoPath, archive string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{repoPath, archive}
	e, ok := c.entries[k]
	if !ok {
		e = &entry{tree: NewTree(), loadedPaths: make(map[string]bool)}
		c.entries[k] = e
	}
	return e
}

// Evict drops the cached tree for (repoPath, archive), forcing the next
// access to rebuild it from scratch (spec §4.G, "Cache eviction").
func (c *Cache) Evict(repoPath, archive string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key{repoPath, archive})
}

// GetDirectoryContents returns the children of dirPath within
// (repoPath, archive). If neither the root nor dirPath has been loaded
// yet, it first fetches a listing: the whole archive when dirPath is the
// root (""), otherwise only dirPath's immediate children (spec §4.G, "Two
// load strategies").
func (c *Cache) GetDirectoryContents(ctx context.Context, passphrase, repoPath, archive, dirPath string) ([]Entry, error) {
	e := c.entryFor(repoPath, archive)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.rootLoaded && !e.loadedPaths[dirPath] {
		if err := c.targetedLoad(ctx, e, passphrase, repoPath, archive, dirPath); err != nil {
			return nil, err
		}
	}

	entries, ok := e.tree.GetDirectoryContents(dirPath)
	if !ok {
		return nil, nil
	}
	return entries, nil
}

// LoadRoot fetches the entire archive listing once to build the full tree
// (spec §4.G, "Root load"). Subsequent traversals hit the cache.
func (c *Cache) LoadRoot(ctx context.Context, passphrase, repoPath, archive string) error {
	e := c.entryFor(repoPath, archive)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rootLoaded {
		return nil
	}
	return c.loadInto(ctx, e, passphrase, repoPath, archive, "")
}

func (c *Cache) targetedLoad(ctx context.Context, e *entry, passphrase, repoPath, archive, dirPath string) error {
	if err := c.loadInto(ctx, e, passphrase, repoPath, archive, dirPath); err != nil {
		return err
	}
	e.loadedPaths[dirPath] = true
	return nil
}

func (c *Cache) loadInto(ctx context.Context, e *entry, passphrase, repoPath, archive, dirPath string) error {
	argv := borgcmd.Builder{}.ListArchiveContents(repoPath, archive, dirPath)
	env := borgcmd.Builder{}.Env(passphrase)

	h, err := c.runner.Start(ctx, argv, env, "")
	if err != nil {
		return fmt.Errorf("archivetree: start listing: %w", err)
	}

	var parseErr error
	res := c.runner.Monitor(h, func(line, tag string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		rec, err := parseListLine(line)
		if err != nil {
			// A malformed line is skipped (not logged) and the listing
			// continues; one bad line never fails the whole load.
			parseErr = err
			return
		}
		e.tree.Ingest(rec)
	}, nil)

	if res.ReturnCode != 0 {
		return fmt.Errorf("archivetree: borg list exited %d: %w", res.ReturnCode, res.Err)
	}
	if dirPath == "" {
		e.rootLoaded = true
	}
	_ = parseErr
	return nil
}

// jsonLine is the subset of Borg's `--json-lines` record shape this
// package reads.
type jsonLine struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Size  int64  `json:"size"`
	MTime string `json:"mtime"`
	Mode  string `json:"mode"`
}

func parseListLine(line string) (Record, error) {
	var jl jsonLine
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	if err := dec.Decode(&jl); err != nil {
		return Record{}, fmt.Errorf("archivetree: parse listing line: %w", err)
	}
	return Record{Path: jl.Path, Type: jl.Type, Size: jl.Size, MTime: jl.MTime, Mode: jl.Mode}, nil
}
