package schema

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/berkano/internal/models"
)

const storeSchemaSQL = `
CREATE TABLE IF NOT EXISTS content_types (
	key         TEXT PRIMARY KEY,
	alias       TEXT NOT NULL,
	is_element  INTEGER NOT NULL DEFAULT 0,
	variation   INTEGER NOT NULL DEFAULT 0,
	properties  TEXT NOT NULL DEFAULT '[]',
	source_path TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS data_types (
	key          TEXT PRIMARY KEY,
	alias        TEXT NOT NULL,
	editor_alias TEXT NOT NULL DEFAULT '',
	blocks       TEXT NOT NULL DEFAULT '[]',
	source_path  TEXT NOT NULL DEFAULT '',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS manifests (
	path     TEXT PRIMARY KEY,
	checksum TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_content_types_alias ON content_types(alias);
CREATE INDEX IF NOT EXISTS idx_content_types_source ON content_types(source_path);
CREATE INDEX IF NOT EXISTS idx_data_types_source ON data_types(source_path);
`

// Store is the SQLite-backed content-type and data-type store.
type Store struct {
	conn *sql.DB
}

// Verify *Store satisfies Resolver at compile time.
var _ Resolver = (*Store)(nil)

// Open opens (or creates) the SQLite schema store and applies its schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("schema: open store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema: ping: %w", err)
	}
	if _, err := conn.Exec(storeSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema: apply store schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// UpsertContentType inserts or replaces a content type, recording the
// manifest file it came from.
func (s *Store) UpsertContentType(ct ContentType, sourcePath string) error {
	props, err := json.Marshal(ct.Properties)
	if err != nil {
		return fmt.Errorf("schema: marshal properties: %w", err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO content_types (key, alias, is_element, variation, properties, source_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			alias       = excluded.alias,
			is_element  = excluded.is_element,
			variation   = excluded.variation,
			properties  = excluded.properties,
			source_path = excluded.source_path,
			updated_at  = excluded.updated_at
	`, ct.Key.String(), ct.Alias, boolInt(ct.IsElement), int(ct.Variation), string(props), sourcePath)
	if err != nil {
		return fmt.Errorf("schema: upsert content type: %w", err)
	}
	return nil
}

// UpsertDataType inserts or replaces a data type.
func (s *Store) UpsertDataType(dt DataType, sourcePath string) error {
	blocks, err := json.Marshal(dt.Blocks)
	if err != nil {
		return fmt.Errorf("schema: marshal blocks: %w", err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO data_types (key, alias, editor_alias, blocks, source_path, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			alias        = excluded.alias,
			editor_alias = excluded.editor_alias,
			blocks       = excluded.blocks,
			source_path  = excluded.source_path,
			updated_at   = excluded.updated_at
	`, dt.Key.String(), dt.Alias, dt.EditorAlias, string(blocks), sourcePath)
	if err != nil {
		return fmt.Errorf("schema: upsert data type: %w", err)
	}
	return nil
}

// ContentType implements Resolver.
func (s *Store) ContentType(key uuid.UUID) (*ContentType, bool) {
	row := s.conn.QueryRow(`
		SELECT key, alias, is_element, variation, properties
		FROM content_types WHERE key = ?
	`, key.String())
	ct, err := scanContentType(row)
	if err != nil {
		return nil, false
	}
	return ct, true
}

// ContentTypeByAlias looks a content type up by its alias.
func (s *Store) ContentTypeByAlias(alias string) (*ContentType, bool) {
	row := s.conn.QueryRow(`
		SELECT key, alias, is_element, variation, properties
		FROM content_types WHERE alias = ?
	`, alias)
	ct, err := scanContentType(row)
	if err != nil {
		return nil, false
	}
	return ct, true
}

// ListContentTypes returns every stored content type ordered by alias.
func (s *Store) ListContentTypes() ([]ContentType, error) {
	rows, err := s.conn.Query(`
		SELECT key, alias, is_element, variation, properties
		FROM content_types ORDER BY alias
	`)
	if err != nil {
		return nil, fmt.Errorf("schema: list content types: %w", err)
	}
	defer rows.Close()

	var out []ContentType
	for rows.Next() {
		ct, err := scanContentType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ct)
	}
	return out, rows.Err()
}

// DataTypeByAlias looks a data type up by its alias.
func (s *Store) DataTypeByAlias(alias string) (*DataType, bool) {
	row := s.conn.QueryRow(`
		SELECT key, alias, editor_alias, blocks
		FROM data_types WHERE alias = ?
	`, alias)
	dt, err := scanDataType(row)
	if err != nil {
		return nil, false
	}
	return dt, true
}

// ListDataTypes returns every stored data type ordered by alias.
func (s *Store) ListDataTypes() ([]DataType, error) {
	rows, err := s.conn.Query(`
		SELECT key, alias, editor_alias, blocks
		FROM data_types ORDER BY alias
	`)
	if err != nil {
		return nil, fmt.Errorf("schema: list data types: %w", err)
	}
	defer rows.Close()

	var out []DataType
	for rows.Next() {
		dt, err := scanDataType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *dt)
	}
	return out, rows.Err()
}

// DeleteBySource removes every content type and data type loaded from the
// given manifest path and returns the keys that were removed.
func (s *Store) DeleteBySource(sourcePath string) (contentKeys, dataKeys []uuid.UUID, err error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("schema: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	contentKeys, err = collectKeys(tx, `SELECT key FROM content_types WHERE source_path = ?`, sourcePath)
	if err != nil {
		return nil, nil, err
	}
	dataKeys, err = collectKeys(tx, `SELECT key FROM data_types WHERE source_path = ?`, sourcePath)
	if err != nil {
		return nil, nil, err
	}

	_, _ = tx.Exec(`DELETE FROM content_types WHERE source_path = ?`, sourcePath)
	_, _ = tx.Exec(`DELETE FROM data_types WHERE source_path = ?`, sourcePath)
	_, _ = tx.Exec(`DELETE FROM manifests WHERE path = ?`, sourcePath)

	return contentKeys, dataKeys, tx.Commit()
}

// ManifestChecksum returns the stored checksum for a manifest path, or empty
// string if the manifest has not been loaded.
func (s *Store) ManifestChecksum(path string) string {
	var cs string
	if err := s.conn.QueryRow(`SELECT checksum FROM manifests WHERE path = ?`, path).Scan(&cs); err != nil {
		return ""
	}
	return cs
}

// SetManifestChecksum records the checksum of a loaded manifest.
func (s *Store) SetManifestChecksum(path, checksum string) error {
	_, err := s.conn.Exec(`
		INSERT INTO manifests (path, checksum) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum
	`, path, checksum)
	if err != nil {
		return fmt.Errorf("schema: set manifest checksum: %w", err)
	}
	return nil
}

// AllManifestChecksums returns the checksum of every loaded manifest.
func (s *Store) AllManifestChecksums() (map[string]string, error) {
	rows, err := s.conn.Query(`SELECT path, checksum FROM manifests`)
	if err != nil {
		return nil, fmt.Errorf("schema: all manifest checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContentType(row rowScanner) (*ContentType, error) {
	var (
		key, alias, props string
		isElement, vari   int
	)
	if err := row.Scan(&key, &alias, &isElement, &vari, &props); err != nil {
		return nil, err
	}
	k, err := uuid.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("schema: bad content type key %q: %w", key, err)
	}
	ct := &ContentType{
		Key:       k,
		Alias:     alias,
		IsElement: isElement != 0,
		Variation: Variation(vari),
	}
	if err := json.Unmarshal([]byte(props), &ct.Properties); err != nil {
		return nil, fmt.Errorf("schema: decode properties: %w", err)
	}
	return ct, nil
}

func scanDataType(row rowScanner) (*DataType, error) {
	var key, alias, editor, blocks string
	if err := row.Scan(&key, &alias, &editor, &blocks); err != nil {
		return nil, err
	}
	k, err := uuid.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("schema: bad data type key %q: %w", key, err)
	}
	dt := &DataType{Key: k, Alias: alias, EditorAlias: editor}
	if err := json.Unmarshal([]byte(blocks), &dt.Blocks); err != nil {
		return nil, fmt.Errorf("schema: decode blocks: %w", err)
	}
	if dt.Blocks == nil {
		dt.Blocks = []models.BlockConfiguration{}
	}
	return dt, nil
}

func collectKeys(tx *sql.Tx, query, arg string) ([]uuid.UUID, error) {
	rows, err := tx.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("schema: collect keys: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if k, err := uuid.Parse(raw); err == nil {
			out = append(out, k)
		}
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
