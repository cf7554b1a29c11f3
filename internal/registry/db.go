// internal/registry/db.go
package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the persistent SQLite registry. Item names and labels are mirrored
// into an FTS5 table so diagnostics surfaces can search them.
type DB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL,
    label TEXT
);

CREATE TABLE IF NOT EXISTS item_members (
    group_name TEXT NOT NULL,
    member_name TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (group_name, member_name)
);

CREATE INDEX IF NOT EXISTS idx_item_members_group
    ON item_members(group_name, position);

CREATE TABLE IF NOT EXISTS things (
    uid TEXT PRIMARY KEY,
    label TEXT
);

CREATE TABLE IF NOT EXISTS channels (
    uid TEXT PRIMARY KEY,
    kind TEXT,
    label TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
    name,
    label,
    content='items',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS items_ai AFTER INSERT ON items BEGIN
    INSERT INTO items_fts(rowid, name, label)
    VALUES (new.id, new.name, new.label);
END;

CREATE TRIGGER IF NOT EXISTS items_ad AFTER DELETE ON items BEGIN
    INSERT INTO items_fts(items_fts, rowid, name, label)
    VALUES ('delete', old.id, old.name, old.label);
END;

CREATE TRIGGER IF NOT EXISTS items_au AFTER UPDATE ON items BEGIN
    INSERT INTO items_fts(items_fts, rowid, name, label)
    VALUES ('delete', old.id, old.name, old.label);
    INSERT INTO items_fts(rowid, name, label)
    VALUES (new.id, new.name, new.label);
END;
`

// Open opens or creates a registry database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if count == 0 {
		db.Exec("INSERT INTO schema_version (version) VALUES (1)")
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Import replaces the registry contents with the given inventory in a
// single transaction.
func (d *DB) Import(inv *Inventory) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM item_members",
		"DELETE FROM items",
		"DELETE FROM things",
		"DELETE FROM channels",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clearing registry: %w", err)
		}
	}

	for _, it := range inv.Items {
		if _, err := tx.Exec(
			"INSERT INTO items (name, kind, label) VALUES (?, ?, ?)",
			it.Name, it.Kind, it.Label,
		); err != nil {
			return fmt.Errorf("inserting item %s: %w", it.Name, err)
		}
		for pos, member := range it.Members {
			if _, err := tx.Exec(
				"INSERT INTO item_members (group_name, member_name, position) VALUES (?, ?, ?)",
				it.Name, member, pos,
			); err != nil {
				return fmt.Errorf("inserting member %s of %s: %w", member, it.Name, err)
			}
		}
	}

	for _, th := range inv.Things {
		if _, err := tx.Exec(
			"INSERT INTO things (uid, label) VALUES (?, ?)", th.UID, th.Label,
		); err != nil {
			return fmt.Errorf("inserting thing %s: %w", th.UID, err)
		}
	}

	for _, ch := range inv.Channels {
		if _, err := tx.Exec(
			"INSERT INTO channels (uid, kind, label) VALUES (?, ?, ?)",
			ch.UID, ch.Kind, ch.Label,
		); err != nil {
			return fmt.Errorf("inserting channel %s: %w", ch.UID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

func (d *DB) LookupItem(name string) (*Item, error) {
	var it Item
	var label sql.NullString
	err := d.db.QueryRow(
		"SELECT name, kind, label FROM items WHERE name = ?", name,
	).Scan(&it.Name, &it.Kind, &label)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	it.Label = label.String
	return &it, nil
}

func (d *DB) LookupThing(uid string) (*Thing, error) {
	var th Thing
	var label sql.NullString
	err := d.db.QueryRow(
		"SELECT uid, label FROM things WHERE uid = ?", uid,
	).Scan(&th.UID, &label)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thing: %w", err)
	}
	th.Label = label.String
	return &th, nil
}

func (d *DB) LookupChannel(uid string) (*Channel, error) {
	var ch Channel
	var kind, label sql.NullString
	err := d.db.QueryRow(
		"SELECT uid, kind, label FROM channels WHERE uid = ?", uid,
	).Scan(&ch.UID, &kind, &label)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel: %w", err)
	}
	ch.Kind = kind.String
	ch.Label = label.String
	return &ch, nil
}

func (d *DB) Members(group string) ([]Item, error) {
	g, err := d.LookupItem(group)
	if err != nil {
		return nil, err
	}
	if !g.IsGroup() {
		return nil, ErrNotAGroup
	}

	rows, err := d.db.Query(`
		SELECT i.name, i.kind, i.label
		FROM item_members m
		JOIN items i ON i.name = m.member_name
		WHERE m.group_name = ?
		ORDER BY m.position
	`, group)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []Item
	for rows.Next() {
		var it Item
		var label sql.NullString
		if err := rows.Scan(&it.Name, &it.Kind, &label); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		it.Label = label.String
		members = append(members, it)
	}
	return members, rows.Err()
}

func (d *DB) AllMembers(group string) ([]Item, error) {
	return expandAll(d, group)
}

// SearchItems runs a full-text search over item names and labels.
func (d *DB) SearchItems(query string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(`
		SELECT i.name, i.kind, i.label
		FROM items i
		JOIN items_fts fts ON i.id = fts.rowid
		WHERE items_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var label sql.NullString
		if err := rows.Scan(&it.Name, &it.Kind, &label); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		it.Label = label.String
		items = append(items, it)
	}
	return items, rows.Err()
}
