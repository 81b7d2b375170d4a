// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlite is an embedded vector store transport on modernc.org/sqlite.
// Vectors are stored as blobs and searched exhaustively by cosine distance.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/store/vecmath"

	_ "modernc.org/sqlite"
)

const (
	collectionsTable = "kw_collections"
	objectsTable     = "kw_objects"
)

// Where is the native filter of this transport: a SQL boolean expression over
// the columns content, content_type and metadata, with positional arguments.
//
//	sqlite.Where{Clause: "json_extract(metadata, '$.source') = ?", Args: []any{"docs"}}
type Where struct {
	Clause string
	Args   []any
}

// Transport implements store.Transport on a SQLite database.
type Transport struct {
	db *sql.DB
}

// Dial opens the database at params.Path, ":memory:" when empty, and ensures
// the schema.
func Dial(ctx context.Context, params store.ClientParams) (store.Transport, error) {
	path := params.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	t, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return t, nil
}

// New wraps an open database and ensures the schema.
func New(ctx context.Context, db *sql.DB) (*Transport, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &Transport{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			vector_size INTEGER NOT NULL DEFAULT 0
		);`, collectionsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			content TEXT NOT NULL,
			content_type TEXT NOT NULL,
			metadata TEXT NOT NULL,
			vector BLOB NOT NULL,
			UNIQUE(collection, id)
		);`, objectsTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_collection ON %s(collection);`, objectsTable, objectsTable),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (t *Transport) CollectionExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE name = ?`, collectionsTable), name,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *Transport) CreateCollection(ctx context.Context, cfg store.CollectionConfig) error {
	_, err := t.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, description, vector_size) VALUES (?, ?, ?)`, collectionsTable),
		cfg.Name, cfg.Description, cfg.VectorSize,
	)
	return err
}

func (t *Transport) GetCollection(ctx context.Context, name string) (store.CollectionInfo, error) {
	info := store.CollectionInfo{Name: name}
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT description FROM %s WHERE name = ?`, collectionsTable), name,
	).Scan(&info.Description)
	if err == sql.ErrNoRows {
		return store.CollectionInfo{}, fmt.Errorf("collection %q not found", name)
	}
	if err != nil {
		return store.CollectionInfo{}, err
	}
	return info, nil
}

func (t *Transport) DeleteCollection(ctx context.Context, name string) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = ?`, collectionsTable), name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("collection %q not found", name)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, objectsTable), name); err != nil {
		return err
	}
	return tx.Commit()
}

func (t *Transport) vectorSize(ctx context.Context, name string) (int, error) {
	var size int
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT vector_size FROM %s WHERE name = ?`, collectionsTable), name,
	).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("collection %q not found", name)
	}
	return size, err
}

func (t *Transport) InsertObjects(ctx context.Context, collection string, objects []store.Object) ([]string, error) {
	size, err := t.vectorSize(ctx, collection)
	if err != nil {
		return nil, err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (collection, id, content, content_type, metadata, vector)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			content = excluded.content,
			content_type = excluded.content_type,
			metadata = excluded.metadata,
			vector = excluded.vector`, objectsTable))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, len(objects))
	for i, obj := range objects {
		if size > 0 && len(obj.Vector) != size {
			return nil, fmt.Errorf("object %d: vector has %d dimensions, collection expects %d", i, len(obj.Vector), size)
		}
		id := obj.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, collection, id,
			obj.Properties.Content, obj.Properties.ContentType, obj.Properties.Metadata,
			vecmath.Encode(obj.Vector),
		); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		ids[i] = id
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *Transport) DeleteObject(ctx context.Context, collection, id string) error {
	_, err := t.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND id = ?`, objectsTable), collection, id,
	)
	return err
}

func (t *Transport) Search(ctx context.Context, collection string, vector []float32, opts store.SearchOptions) ([]store.ScoredObject, error) {
	if ok, err := t.CollectionExists(ctx, collection); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("collection %q not found", collection)
	}

	query := fmt.Sprintf(`SELECT id, content, content_type, metadata, vector FROM %s WHERE collection = ?`, objectsTable)
	args := []any{collection}
	var eq vecmath.Equality

	where, native, err := store.NativeAs[Where](opts.Filter)
	switch {
	case err != nil:
		return nil, err
	case native:
		if strings.TrimSpace(where.Clause) != "" {
			query += " AND (" + where.Clause + ")"
			args = append(args, where.Args...)
		}
	default:
		if raw, ok := opts.Filter.Raw(); ok {
			if eq, err = vecmath.ParseEquality(raw); err != nil {
				return nil, err
			}
		}
	}
	query += " ORDER BY seq"

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []store.ScoredObject
	for rows.Next() {
		var obj store.Object
		var blob []byte
		if err := rows.Scan(&obj.ID, &obj.Properties.Content, &obj.Properties.ContentType, &obj.Properties.Metadata, &blob); err != nil {
			return nil, err
		}
		if eq != nil && !eq.Match(obj.Properties) {
			continue
		}
		if obj.Vector, err = vecmath.Decode(blob); err != nil {
			return nil, fmt.Errorf("object %s: %w", obj.ID, err)
		}
		d := vecmath.CosineDistance(vector, obj.Vector)
		if opts.Distance != nil && d > *opts.Distance {
			continue
		}
		hits = append(hits, store.ScoredObject{Object: obj, Distance: &d})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return *hits[i].Distance < *hits[j].Distance
	})
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

func (t *Transport) CountObjects(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE collection = ?`, objectsTable), collection,
	).Scan(&n)
	return n, err
}

func (t *Transport) Close() error {
	return t.db.Close()
}

var _ store.Transport = (*Transport)(nil)
