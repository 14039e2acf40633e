package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
)

// RegistryScheme prefixes targets served by a RegistryLoader,
// e.g. "registry:pet#/definitions/Pet".
const RegistryScheme = "registry:"

const registrySchema = `CREATE TABLE IF NOT EXISTS schemas (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL
)`

// RegistryLoader serves documents stored in a SQL schema registry.
// Documents are rows of the schemas table, keyed by name, with YAML or JSON bodies.
type RegistryLoader struct {
	db *sql.DB
}

// NewRegistryLoader creates a RegistryLoader over db.
// The schemas table must exist; see CreateRegistrySchema.
func NewRegistryLoader(db *sql.DB) *RegistryLoader {
	return &RegistryLoader{db: db}
}

// OpenRegistry opens (creating if needed) a SQLite schema registry at path.
// Use ":memory:" for a private in-memory registry.
func OpenRegistry(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	if path == ":memory:" {
		// each connection to :memory: is a distinct database
		db.SetMaxOpenConns(1)
	}
	if err := CreateRegistrySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// CreateRegistrySchema creates the schemas table if it does not exist.
func CreateRegistrySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, registrySchema); err != nil {
		return fmt.Errorf("creating registry schema: %w", err)
	}
	return nil
}

// PutSchema inserts or replaces the document stored under name.
func PutSchema(ctx context.Context, db *sql.DB, name string, body []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO schemas (name, body) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body`,
		name, string(body))
	if err != nil {
		return fmt.Errorf("storing schema %s: %w", name, err)
	}
	return nil
}

// Kind implements Loader.
func (l *RegistryLoader) Kind() string { return "registry" }

// Match implements Loader.
func (l *RegistryLoader) Match(target string) bool {
	return strings.HasPrefix(target, RegistryScheme) && len(target) > len(RegistryScheme)
}

// Locate implements Loader. Registry names are absolute, so base is passed
// through for any relative targets inside the loaded document.
func (l *RegistryLoader) Locate(target, base string) (Location, error) {
	name := strings.TrimPrefix(target, RegistryScheme)
	if name == "" {
		return Location{}, &dereferrors.LoaderError{Kind: l.Kind(), Target: target, Message: "empty registry name"}
	}
	return Location{ID: RegistryScheme + name, Base: base}, nil
}

// Load implements Loader.
func (l *RegistryLoader) Load(loc Location) (any, error) {
	name := strings.TrimPrefix(loc.ID, RegistryScheme)

	var body string
	err := l.db.QueryRow(`SELECT body FROM schemas WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(loc.ID)
	}
	if err != nil {
		return nil, &dereferrors.LoaderError{Kind: l.Kind(), Target: loc.ID, Message: "registry query failed", Cause: err}
	}

	doc, err := DecodeDocument([]byte(body))
	if err != nil {
		return nil, &dereferrors.LoaderError{Kind: l.Kind(), Target: loc.ID, Message: "failed to parse registry document", Cause: err}
	}
	return doc, nil
}
