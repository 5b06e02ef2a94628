// Package store owns the durable element records of a knowledge tree and the
// dependency index derived from them. One Store instance corresponds to one
// tree directory on disk; all operations go through it.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codetree/internal/knowledge"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	metadataVersion = 1
	metadataFile    = "metadata.json"
	elementsDir     = "elements"

	// loadConcurrency bounds the parallel element reads during Open.
	loadConcurrency = 8
)

// metadata is the tree-level record kept next to the element files.
type metadata struct {
	Version      int       `json:"version"`
	TreeID       string    `json:"tree_id"`
	ElementCount int       `json:"element_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is a knowledge tree backed by a directory of JSON files. Mutating
// operations persist synchronously before they return; reads are served from
// memory. Safe for concurrent use.
type Store struct {
	root   string
	logger *logrus.Logger

	mu       sync.RWMutex
	elements map[string]*knowledge.Element
	meta     metadata

	watcher   *fsnotify.Watcher
	watchDone chan struct{}
	closeOnce sync.Once
}

// Open loads the knowledge tree rooted at dir, creating a fresh tree if the
// directory does not exist yet. Every element file is validated on load; a
// file that fails validation aborts the open with a malformed_record error
// naming it.
func Open(ctx context.Context, dir string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Store{
		root:   dir,
		logger: logger,
	}

	if err := os.MkdirAll(s.elementsPath(), 0755); err != nil {
		return nil, knowledge.IOFailuref(err, "failed to create tree directory %s", dir)
	}

	meta, freshMeta, err := s.loadMetadata()
	if err != nil {
		return nil, err
	}
	s.meta = meta

	elements, err := s.loadElements(ctx)
	if err != nil {
		return nil, err
	}
	s.elements = elements
	rebuildDependents(s.elements)

	if freshMeta || s.meta.ElementCount != len(s.elements) {
		s.meta.ElementCount = len(s.elements)
		if err := s.writeMetadataOnly(); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"path":     dir,
		"elements": len(s.elements),
		"tree_id":  s.meta.TreeID,
	}).Info("Opened knowledge tree")

	return s, nil
}

// Reload drops the in-memory state and re-reads the tree from disk.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, _, err := s.loadMetadata()
	if err != nil {
		return err
	}
	elements, err := s.loadElements(ctx)
	if err != nil {
		return err
	}
	rebuildDependents(elements)

	s.meta = meta
	s.meta.ElementCount = len(elements)
	s.elements = elements
	return nil
}

// Close stops the file watcher if one is running.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			close(s.watchDone)
			s.watcher.Close()
		}
	})
}

// Root returns the tree directory the store was opened on.
func (s *Store) Root() string {
	return s.root
}

// TreeInfo describes the on-disk layout of an open tree.
type TreeInfo struct {
	TreeDir        string    `json:"tree_dir"`
	ElementsDir    string    `json:"elements_dir"`
	MetadataPath   string    `json:"metadata_path"`
	TreeDirExists  bool      `json:"tree_dir_exists"`
	MetadataExists bool      `json:"metadata_exists"`
	TreeID         string    `json:"tree_id"`
	ElementCount   int       `json:"element_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Info reports the resolved paths and counters of the open tree.
func (s *Store) Info() *TreeInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := &TreeInfo{
		TreeDir:      s.root,
		ElementsDir:  s.elementsPath(),
		MetadataPath: s.metadataPath(),
		TreeID:       s.meta.TreeID,
		ElementCount: len(s.elements),
		CreatedAt:    s.meta.CreatedAt,
		UpdatedAt:    s.meta.UpdatedAt,
	}
	if st, err := os.Stat(info.TreeDir); err == nil && st.IsDir() {
		info.TreeDirExists = true
	}
	if _, err := os.Stat(info.MetadataPath); err == nil {
		info.MetadataExists = true
	}
	return info
}

func (s *Store) elementsPath() string {
	return filepath.Join(s.root, elementsDir)
}

func (s *Store) metadataPath() string {
	return filepath.Join(s.root, metadataFile)
}

func (s *Store) elementPath(id string) string {
	return filepath.Join(s.elementsPath(), id+".json")
}

// loadMetadata reads metadata.json, minting a fresh record when the file does
// not exist yet. The second return reports whether the record is fresh.
func (s *Store) loadMetadata() (metadata, bool, error) {
	data, err := os.ReadFile(s.metadataPath())
	if os.IsNotExist(err) {
		now := time.Now().UTC()
		return metadata{
			Version:   metadataVersion,
			TreeID:    uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		}, true, nil
	}
	if err != nil {
		return metadata{}, false, knowledge.IOFailuref(err, "failed to read %s", metadataFile)
	}

	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return metadata{}, false, knowledge.MalformedRecord(err, "malformed %s", metadataFile)
	}
	if meta.Version > metadataVersion {
		return metadata{}, false, knowledge.MalformedRecord(nil, "%s has schema version %d, this build supports up to %d", metadataFile, meta.Version, metadataVersion)
	}
	if meta.Version == 0 {
		meta.Version = metadataVersion
	}
	if meta.TreeID == "" {
		meta.TreeID = uuid.NewString()
	}
	return meta, false, nil
}

// loadElements reads every element file under elements/ concurrently.
func (s *Store) loadElements(ctx context.Context) (map[string]*knowledge.Element, error) {
	entries, err := os.ReadDir(s.elementsPath())
	if err != nil {
		return nil, knowledge.IOFailuref(err, "failed to read %s directory", elementsDir)
	}

	elements := make(map[string]*knowledge.Element, len(entries))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			elem, err := readElementFile(filepath.Join(s.elementsPath(), name), name)
			if err != nil {
				return err
			}
			mu.Lock()
			elements[elem.ID] = elem
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return elements, nil
}

// readElementFile parses and validates one element record.
func readElementFile(path, name string) (*knowledge.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, knowledge.IOFailuref(err, "failed to read element file %s", name)
	}

	var elem knowledge.Element
	if err := json.Unmarshal(data, &elem); err != nil {
		return nil, knowledge.MalformedRecord(err, "malformed element file %s", name)
	}
	if elem.ID == "" {
		return nil, knowledge.MalformedRecord(nil, "element file %s has no id", name)
	}
	if elem.ID != strings.TrimSuffix(name, ".json") {
		return nil, knowledge.MalformedRecord(nil, "element file %s holds id %q", name, elem.ID)
	}
	if !elem.Type.Valid() {
		return nil, knowledge.MalformedRecord(nil, "element file %s has unknown type %q", name, elem.Type)
	}

	elem.Dependencies = knowledge.NormalizeDeps(elem.Dependencies)
	return &elem, nil
}

// rebuildDependents re-derives every reverse edge from the forward edges.
// Persisted dependents lists are advisory only; memory always reflects the
// derivation, and files catch up the next time they are written.
func rebuildDependents(elements map[string]*knowledge.Element) {
	for _, elem := range elements {
		elem.Dependents = []string{}
	}
	for _, elem := range elements {
		for _, dep := range elem.Dependencies {
			if target, ok := elements[dep]; ok {
				target.Dependents = insertSorted(target.Dependents, elem.ID)
			}
		}
	}
}

// now is the single clock for element and metadata timestamps.
func now() time.Time {
	return time.Now().UTC()
}

// insertSorted inserts id into a sorted id list, keeping it sorted and
// duplicate-free.
func insertSorted(list []string, id string) []string {
	for i, cur := range list {
		if cur == id {
			return list
		}
		if cur > id {
			list = append(list, "")
			copy(list[i+1:], list[i:])
			list[i] = id
			return list
		}
	}
	return append(list, id)
}

// removeString removes id from list, preserving order.
func removeString(list []string, id string) []string {
	out := list[:0]
	for _, cur := range list {
		if cur != id {
			out = append(out, cur)
		}
	}
	return out
}

// contains reports whether list holds id.
func contains(list []string, id string) bool {
	for _, cur := range list {
		if cur == id {
			return true
		}
	}
	return false
}

// writeMetadataOnly persists the current metadata record outside a staged
// commit. Used by Open to heal a stale element count.
func (s *Store) writeMetadataOnly() error {
	data, err := marshalJSON(s.meta)
	if err != nil {
		return knowledge.IOFailure(err, "failed to encode metadata")
	}
	if err := writeAtomic(s.metadataPath(), data); err != nil {
		return knowledge.IOFailuref(err, "failed to write %s", metadataFile)
	}
	return nil
}

// marshalJSON renders a record the way the element files are stored:
// indented, trailing newline.
func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
