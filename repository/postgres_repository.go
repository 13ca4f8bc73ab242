package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/idelsangithub/node-tree-api/config"
	"github.com/idelsangithub/node-tree-api/migrations"
	"github.com/idelsangithub/node-tree-api/models"

	"github.com/lib/pq"
)

// pgForeignKeyViolation is the PostgreSQL foreign_key_violation code
const pgForeignKeyViolation = "23503"

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db  *sql.DB
	dsn string
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfgProvider config.Provider) (*PostgresRepository, error) {
	cfg, err := config.GetDatabaseConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config: %w", err)
	}

	return NewPostgresRepositoryWithDSN(cfg.DSN()), nil
}

// NewPostgresRepositoryWithDSN creates a PostgreSQL repository for a lib/pq
// connection string
func NewPostgresRepositoryWithDSN(dsn string) *PostgresRepository {
	return &PostgresRepository{dsn: dsn}
}

// Initialize opens the connection pool and runs migrations
func (r *PostgresRepository) Initialize(ctx context.Context) error {
	if err := r.Open(ctx); err != nil {
		return err
	}
	if err := migrations.RunMigrations(r.db, migrations.Postgres); err != nil {
		r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// Open connects to the database without touching the schema
func (r *PostgresRepository) Open(ctx context.Context) error {
	db, err := sql.Open("postgres", r.dsn)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	r.db = db
	return nil
}

// DB exposes the underlying pool for maintenance commands
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Cleanup closes the database connection
func (r *PostgresRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateNode inserts a node and its default translation in one transaction
func (r *PostgresRepository) CreateNode(ctx context.Context, parentID *int64) (*models.Node, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if parentID != nil {
		// FOR KEY SHARE blocks a concurrent delete of the parent until commit
		var locked int64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM nodes WHERE id = $1 FOR KEY SHARE",
			*parentID,
		).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("error checking parent node: %w", err)
		}
	}

	node := &models.Node{ParentID: parentID}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO nodes (parent_id) VALUES ($1) RETURNING id, created_at, updated_at",
		parentID,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, ErrParentNotFound
		}
		return nil, fmt.Errorf("error creating node: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO node_translations (node_id, locale, title) VALUES ($1, $2, $3)",
		node.ID, DefaultLocale, models.FallbackTitle(node.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating default translation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing node: %w", err)
	}
	return node, nil
}

// GetNode retrieves a node by ID
func (r *PostgresRepository) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = $1",
		id,
	)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error getting node: %w", err)
	}
	return node, nil
}

// ListRoots returns a page of root nodes
func (r *PostgresRepository) ListRoots(ctx context.Context, page, pageSize int) ([]*models.Node, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nodes WHERE parent_id IS NULL",
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting root nodes: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE parent_id IS NULL ORDER BY id LIMIT $1 OFFSET $2",
		pageSize, offset(page, pageSize),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing root nodes: %w", err)
	}
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, 0, err
	}
	return nodes, total, nil
}

// ListChildren returns a page of direct children
func (r *PostgresRepository) ListChildren(ctx context.Context, parentID int64, page, pageSize int) ([]*models.Node, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nodes WHERE parent_id = $1",
		parentID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting child nodes: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE parent_id = $1 ORDER BY id LIMIT $2 OFFSET $3",
		parentID, pageSize, offset(page, pageSize),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing child nodes: %w", err)
	}
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, 0, err
	}
	return nodes, total, nil
}

// ChildIDs returns the children of all given parents in one query
func (r *PostgresRepository) ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM nodes WHERE parent_id = ANY($1) ORDER BY id",
		pq.Array(parentIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("error getting child ids: %w", err)
	}
	return scanIDs(rows)
}

// ListByIDs returns a page of the given nodes
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int64, page, pageSize int) ([]*models.Node, int64, error) {
	if len(ids) == 0 {
		return []*models.Node{}, 0, nil
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nodes WHERE id = ANY($1)",
		pq.Array(ids),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting nodes: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = ANY($1) ORDER BY id LIMIT $2 OFFSET $3",
		pq.Array(ids), pageSize, offset(page, pageSize),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing nodes by id: %w", err)
	}
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, 0, err
	}
	return nodes, total, nil
}

// HasChildren reports whether a node has at least one child
func (r *PostgresRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking children: %w", err)
	}
	return exists, nil
}

// DeleteLeaf deletes a childless node inside a transaction
func (r *PostgresRepository) DeleteLeaf(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// FOR UPDATE conflicts with the FOR KEY SHARE taken by child inserts,
	// so no child can appear between the check and the delete
	var locked int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM nodes WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNodeNotFound
		}
		return fmt.Errorf("error locking node: %w", err)
	}

	var hasChildren bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id = $1)",
		id,
	).Scan(&hasChildren)
	if err != nil {
		return fmt.Errorf("error checking children: %w", err)
	}
	if hasChildren {
		return ErrHasChildren
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE id = $1", id)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrHasChildren
		}
		return fmt.Errorf("error deleting node: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNodeNotFound
	}

	return tx.Commit()
}

// CountNodes returns the number of stored nodes
func (r *PostgresRepository) CountNodes(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting nodes: %w", err)
	}
	return total, nil
}

// Titles returns the stored titles of the given nodes for one locale
func (r *PostgresRepository) Titles(ctx context.Context, nodeIDs []int64, locale string) (map[int64]string, error) {
	titles := make(map[int64]string, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return titles, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT node_id, title FROM node_translations WHERE locale = $1 AND node_id = ANY($2)",
		locale, pq.Array(nodeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("error getting translations: %w", err)
	}
	if err := scanTitles(rows, titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// UpsertTranslation stores a node title for a locale
func (r *PostgresRepository) UpsertTranslation(ctx context.Context, nodeID int64, locale, title string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO node_translations (node_id, locale, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (node_id, locale) DO UPDATE SET title = EXCLUDED.title
	`, nodeID, locale, title)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrNodeNotFound
		}
		return fmt.Errorf("error storing translation: %w", err)
	}
	return nil
}

// isPgError reports whether err is a PostgreSQL error with the given code
func isPgError(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
