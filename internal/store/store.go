// Package store implements filesystem-backed collections: one
// pretty-printed JSON document per entity under <dir>/<collection>/.
//
// There is no cross-process or per-ID locking. Two concurrent writers
// to the same ID are a last-writer-wins race; this is an accepted
// limitation of the single-admin tool, not something the store hides.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/metrics"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// Entity is one document of a collection
type Entity struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// ContentStore reads and writes JSON-file collections under a root dir
type ContentStore struct {
	dir    string
	logger *logrus.Logger
}

// New creates a content store rooted at dir
func New(dir string, logger *logrus.Logger) *ContentStore {
	return &ContentStore{dir: dir, logger: logger}
}

// List reads every JSON file of a collection. Unparseable files are
// skipped and logged, never aborting the listing. Results are ordered
// by ID for stable output.
func (s *ContentStore) List(collection string) ([]Entity, error) {
	dir := filepath.Join(s.dir, collection)

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			metrics.RecordStoreOperation("list", "success")
			return []Entity{}, nil
		}
		metrics.RecordStoreOperation("list", "failure")
		return nil, apperrors.Newf(apperrors.CodeIO, err, "failed to read collection %s", collection)
	}

	entities := []Entity{}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(file.Name(), ".json")
		entity, err := s.read(collection, id)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"collection": collection,
				"id":         id,
			}).Warn("Skipping unparseable collection file")
			continue
		}
		entities = append(entities, *entity)
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })

	metrics.RecordStoreOperation("list", "success")
	return entities, nil
}

// Get returns one entity, or nil when the file is absent or unparseable
func (s *ContentStore) Get(collection, id string) (*Entity, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	entity, err := s.read(collection, id)
	if err != nil {
		if os.IsNotExist(err) {
			metrics.RecordStoreOperation("get", "success")
			return nil, nil
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"collection": collection,
			"id":         id,
		}).Warn("Entity file unreadable, treating as absent")
		metrics.RecordStoreOperation("get", "failure")
		return nil, nil
	}

	metrics.RecordStoreOperation("get", "success")
	return entity, nil
}

// Create writes a new entity, rejecting an existing ID with
// ALREADY_EXISTS. The collection directory is created as needed and the
// document is written atomically (temp file + rename).
func (s *ContentStore) Create(collection, id string, data interface{}) (*Entity, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	path := s.path(collection, id)
	if _, err := os.Stat(path); err == nil {
		metrics.RecordStoreOperation("create", "failure")
		return nil, apperrors.Newf(apperrors.CodeAlreadyExists, nil, "entry %s already exists in collection %s", id, collection)
	}

	entity, err := s.write(collection, id, data)
	if err != nil {
		metrics.RecordStoreOperation("create", "failure")
		return nil, err
	}

	metrics.RecordStoreOperation("create", "success")
	return entity, nil
}

// Update overwrites an existing entity in full, failing with NOT_FOUND
// when the target file does not exist. Callers merge before calling.
func (s *ContentStore) Update(collection, id string, data interface{}) (*Entity, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	path := s.path(collection, id)
	if _, err := os.Stat(path); err != nil {
		metrics.RecordStoreOperation("update", "failure")
		return nil, apperrors.Newf(apperrors.CodeNotFound, nil, "entry %s does not exist in collection %s", id, collection)
	}

	entity, err := s.write(collection, id, data)
	if err != nil {
		metrics.RecordStoreOperation("update", "failure")
		return nil, err
	}

	metrics.RecordStoreOperation("update", "success")
	return entity, nil
}

// Upsert writes an entity regardless of prior existence
func (s *ContentStore) Upsert(collection, id string, data interface{}) (*Entity, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	entity, err := s.write(collection, id, data)
	if err != nil {
		metrics.RecordStoreOperation("upsert", "failure")
		return nil, err
	}

	metrics.RecordStoreOperation("upsert", "success")
	return entity, nil
}

// Remove deletes an entity file. A second call with the same ID yields
// a clean NOT_FOUND, never a crash.
func (s *ContentStore) Remove(collection, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	path := s.path(collection, id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			metrics.RecordStoreOperation("remove", "failure")
			return apperrors.Newf(apperrors.CodeNotFound, nil, "entry %s does not exist in collection %s", id, collection)
		}
		metrics.RecordStoreOperation("remove", "failure")
		return apperrors.Newf(apperrors.CodeIO, err, "failed to delete entry %s from collection %s", id, collection)
	}

	metrics.RecordStoreOperation("remove", "success")
	return nil
}

func (s *ContentStore) read(collection, id string) (*Entity, error) {
	raw, err := os.ReadFile(s.path(collection, id))
	if err != nil {
		return nil, err
	}

	// Parse to verify the document is valid JSON before handing it out.
	var check interface{}
	if err := json.Unmarshal(raw, &check); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s/%s: %w", collection, id, err)
	}

	return &Entity{ID: id, Data: raw}, nil
}

func (s *ContentStore) write(collection, id string, data interface{}) (*Entity, error) {
	dir := filepath.Join(s.dir, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Newf(apperrors.CodeIO, err, "failed to create collection directory %s", dir)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeValidation, err, "entry %s is not serializable", id)
	}

	// Write to a temp file in the same directory and rename into place
	// so a crash mid-write cannot leave a truncated document.
	tmp, err := os.CreateTemp(dir, id+".*.tmp")
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeIO, err, "failed to create temp file for entry %s", id)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, apperrors.Newf(apperrors.CodeIO, err, "failed to write entry %s", id)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, apperrors.Newf(apperrors.CodeIO, err, "failed to flush entry %s", id)
	}

	if err := os.Rename(tmpName, s.path(collection, id)); err != nil {
		os.Remove(tmpName)
		return nil, apperrors.Newf(apperrors.CodeIO, err, "failed to persist entry %s", id)
	}

	return &Entity{ID: id, Data: raw}, nil
}

func (s *ContentStore) path(collection, id string) string {
	return filepath.Join(s.dir, collection, id+".json")
}

// validateID rejects IDs that would escape the collection directory
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return apperrors.Newf(apperrors.CodeValidation, nil, "invalid entry id %q", id)
	}
	return nil
}
