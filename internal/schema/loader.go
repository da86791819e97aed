package schema

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/berkano/internal/checksum"
)

// Manifest is the YAML document shape of one schema file. A manifest may
// declare any mix of content types and data types.
type Manifest struct {
	ContentTypes []ContentType `yaml:"contentTypes"`
	DataTypes    []DataType    `yaml:"dataTypes"`
}

// ChangeKind classifies a schema change notification.
type ChangeKind string

const (
	// ChangeContentType signals that a content type was added, updated or removed.
	ChangeContentType ChangeKind = "contenttype.changed"
	// ChangeDataType signals that a data type was added, updated or removed.
	ChangeDataType ChangeKind = "datatype.changed"
)

// ChangeCallback is invoked after the store was mutated for the given key.
type ChangeCallback func(kind ChangeKind, key uuid.UUID)

// ParseManifest decodes and validates one manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("schema: parse manifest: %w", err)
	}
	for i, ct := range m.ContentTypes {
		if ct.Key == uuid.Nil {
			return nil, fmt.Errorf("schema: contentTypes[%d] (%q): key is required", i, ct.Alias)
		}
		if ct.Alias == "" {
			return nil, fmt.Errorf("schema: contentTypes[%d]: alias is required", i)
		}
	}
	for i, dt := range m.DataTypes {
		if dt.Key == uuid.Nil {
			return nil, fmt.Errorf("schema: dataTypes[%d] (%q): key is required", i, dt.Alias)
		}
		if dt.Alias == "" {
			return nil, fmt.Errorf("schema: dataTypes[%d]: alias is required", i)
		}
	}
	return &m, nil
}

// LoadFile parses one manifest file and upserts its declarations into the
// store. cb (if non-nil) is invoked once per upserted entity. Files whose
// checksum matches the stored one are skipped.
func LoadFile(store *Store, path string, data []byte, logger *slog.Logger, cb ChangeCallback) error {
	cs := checksum.Sum(data)
	if store.ManifestChecksum(path) == cs {
		return nil
	}

	m, err := ParseManifest(data)
	if err != nil {
		return err
	}

	for _, ct := range m.ContentTypes {
		if err := store.UpsertContentType(ct, path); err != nil {
			return err
		}
		logger.Debug("schema: content type loaded",
			slog.String("alias", ct.Alias), slog.String("key", ct.Key.String()))
		if cb != nil {
			cb(ChangeContentType, ct.Key)
		}
	}
	for _, dt := range m.DataTypes {
		if err := store.UpsertDataType(dt, path); err != nil {
			return err
		}
		logger.Debug("schema: data type loaded",
			slog.String("alias", dt.Alias), slog.String("key", dt.Key.String()))
		if cb != nil {
			cb(ChangeDataType, dt.Key)
		}
	}

	return store.SetManifestChecksum(path, cs)
}

// RemoveFile drops every declaration loaded from the given manifest path.
func RemoveFile(store *Store, path string, logger *slog.Logger, cb ChangeCallback) error {
	contentKeys, dataKeys, err := store.DeleteBySource(path)
	if err != nil {
		return err
	}
	if len(contentKeys)+len(dataKeys) > 0 {
		logger.Debug("schema: manifest removed",
			slog.String("path", path),
			slog.Int("content_types", len(contentKeys)),
			slog.Int("data_types", len(dataKeys)))
	}
	if cb != nil {
		for _, k := range contentKeys {
			cb(ChangeContentType, k)
		}
		for _, k := range dataKeys {
			cb(ChangeDataType, k)
		}
	}
	return nil
}

// Sync walks the schema directory and brings the store up to date:
//   - new/changed manifests are parsed and upserted
//   - manifests removed from disk have their declarations deleted
func Sync(store *Store, dir string, logger *slog.Logger, cb ChangeCallback) error {
	known, err := store.AllManifestChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{})
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isManifestPath(path) {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		disk[rel] = struct{}{}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warn("schema sync: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
			return nil
		}
		if loadErr := LoadFile(store, rel, data, logger, cb); loadErr != nil {
			logger.Warn("schema sync: load failed", slog.String("path", rel), slog.String("error", loadErr.Error()))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("schema: sync walk: %w", err)
	}

	// Remove declarations whose manifest disappeared.
	for p := range known {
		if _, ok := disk[p]; !ok {
			if rmErr := RemoveFile(store, p, logger, cb); rmErr != nil {
				logger.Warn("schema sync: remove failed", slog.String("path", p), slog.String("error", rmErr.Error()))
			}
		}
	}

	return nil
}

func isManifestPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
