package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/idelsangithub/node-tree-api/migrations"
	"github.com/idelsangithub/node-tree-api/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteRepository creates a new SQLite repository instance.
// An empty path stores the database under the user's home directory.
func NewSQLiteRepository(path string) *SQLiteRepository {
	if path != "" {
		return &SQLiteRepository{dbPath: path}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".nodetree")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		// Fallback to current directory if home directory is not accessible
		dataDir = "."
	}

	return &SQLiteRepository{
		dbPath: filepath.Join(dataDir, "nodetree.db"),
	}
}

// Initialize opens the SQLite database and runs migrations
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	if err := r.Open(ctx); err != nil {
		return err
	}
	if err := migrations.RunMigrations(r.db, migrations.SQLite); err != nil {
		r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// Open opens the database file without touching the schema
func (r *SQLiteRepository) Open(ctx context.Context) error {
	// _txlock=immediate makes every transaction take the write lock up front
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", r.dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("error opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging sqlite database: %w", err)
	}

	r.db = db
	return nil
}

// DB exposes the underlying handle for maintenance commands
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// Ping checks the database connection
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Cleanup closes the database connection
func (r *SQLiteRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateNode inserts a node and its default translation in one transaction
func (r *SQLiteRepository) CreateNode(ctx context.Context, parentID *int64) (*models.Node, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if parentID != nil {
		var exists bool
		err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = ?)", *parentID).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrParentNotFound
		}
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		"INSERT INTO nodes (parent_id, created_at, updated_at) VALUES (?, ?, ?)",
		parentID, now, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO node_translations (node_id, locale, title) VALUES (?, ?, ?)",
		id, DefaultLocale, models.FallbackTitle(id),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.Node{ID: id, ParentID: parentID, CreatedAt: now, UpdatedAt: now}, nil
}

// GetNode retrieves a node by ID
func (r *SQLiteRepository) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	return node, nil
}

// ListRoots returns a page of root nodes
func (r *SQLiteRepository) ListRoots(ctx context.Context, page, pageSize int) ([]*models.Node, int64, error) {
	return r.listWhere(ctx, "parent_id IS NULL", nil, page, pageSize)
}

// ListChildren returns a page of direct children
func (r *SQLiteRepository) ListChildren(ctx context.Context, parentID int64, page, pageSize int) ([]*models.Node, int64, error) {
	return r.listWhere(ctx, "parent_id = ?", []any{parentID}, page, pageSize)
}

// ChildIDs returns the children of all given parents in one query
func (r *SQLiteRepository) ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	batch, err := idArray(parentIDs)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM nodes WHERE parent_id IN "+inIDArray+" ORDER BY id",
		batch,
	)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// ListByIDs returns a page of the given nodes
func (r *SQLiteRepository) ListByIDs(ctx context.Context, ids []int64, page, pageSize int) ([]*models.Node, int64, error) {
	if len(ids) == 0 {
		return []*models.Node{}, 0, nil
	}
	batch, err := idArray(ids)
	if err != nil {
		return nil, 0, err
	}
	return r.listWhere(ctx, "id IN "+inIDArray, []any{batch}, page, pageSize)
}

// listWhere counts and pages nodes matching a filter, ordered by id
func (r *SQLiteRepository) listWhere(ctx context.Context, where string, args []any, page, pageSize int) ([]*models.Node, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageArgs := append(append([]any{}, args...), pageSize, offset(page, pageSize))
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE "+where+" ORDER BY id LIMIT ? OFFSET ?",
		pageArgs...,
	)
	if err != nil {
		return nil, 0, err
	}
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, 0, err
	}
	return nodes, total, nil
}

// HasChildren reports whether a node has at least one child
func (r *SQLiteRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id = ?)", id).Scan(&exists)
	return exists, err
}

// DeleteLeaf deletes a childless node. The immediate transaction holds the
// database write lock, so no child can be inserted in between.
func (r *SQLiteRepository) DeleteLeaf(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var hasChildren bool
	err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id = ?)", id).Scan(&hasChildren)
	if err != nil {
		return err
	}
	if hasChildren {
		return ErrHasChildren
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNodeNotFound
	}
	return tx.Commit()
}

// CountNodes returns the number of stored nodes
func (r *SQLiteRepository) CountNodes(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&total)
	return total, err
}

// Titles returns the stored titles of the given nodes for one locale
func (r *SQLiteRepository) Titles(ctx context.Context, nodeIDs []int64, locale string) (map[int64]string, error) {
	titles := make(map[int64]string, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return titles, nil
	}

	batch, err := idArray(nodeIDs)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT node_id, title FROM node_translations WHERE locale = ? AND node_id IN "+inIDArray,
		locale, batch,
	)
	if err != nil {
		return nil, err
	}
	if err := scanTitles(rows, titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// UpsertTranslation stores a node title for a locale
func (r *SQLiteRepository) UpsertTranslation(ctx context.Context, nodeID int64, locale, title string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = ?)", nodeID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNodeNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO node_translations (node_id, locale, title) VALUES (?, ?, ?)
		ON CONFLICT (node_id, locale) DO UPDATE SET title = excluded.title, updated_at = CURRENT_TIMESTAMP
	`, nodeID, locale, title)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// inIDArray expands one JSON array argument into a set, so a batch of any
// size binds a single variable
const inIDArray = "(SELECT value FROM json_each(?))"

// idArray encodes ids as the JSON array bound to inIDArray
func idArray(ids []int64) (string, error) {
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
