package repository

import (
	"context"
	"errors"

	"github.com/idelsangithub/node-tree-api/models"
)

// NodeStore defines data access over the adjacency-list nodes table.
type NodeStore interface {
	// CreateNode inserts a node under parentID (nil for a root) together with
	// its default "en" translation, as one unit.
	// Returns:
	//   - The created node with its assigned ID and timestamps
	//   - ErrParentNotFound if parentID does not name an existing node
	//   - Other error if the operation fails
	CreateNode(ctx context.Context, parentID *int64) (*models.Node, error)

	// GetNode retrieves a node by its ID.
	// Returns:
	//   - ErrNodeNotFound if no node exists with the given ID
	GetNode(ctx context.Context, id int64) (*models.Node, error)

	// ListRoots returns one page of nodes without a parent, ordered by ID,
	// and the total number of roots.
	ListRoots(ctx context.Context, page, pageSize int) ([]*models.Node, int64, error)

	// ListChildren returns one page of the direct children of parentID,
	// ordered by ID, and the total number of children.
	ListChildren(ctx context.Context, parentID int64, page, pageSize int) ([]*models.Node, int64, error)

	// ChildIDs returns the IDs of every node whose parent is one of parentIDs.
	// Implementations must answer with a single round-trip.
	ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error)

	// ListByIDs returns one page of the given nodes, ordered by ID, and the
	// number of those IDs that exist.
	ListByIDs(ctx context.Context, ids []int64, page, pageSize int) ([]*models.Node, int64, error)

	// HasChildren reports whether any node references id as its parent.
	HasChildren(ctx context.Context, id int64) (bool, error)

	// DeleteLeaf removes a node and its translations if it has no children.
	// The children check and the delete run as one atomic unit.
	// Returns:
	//   - ErrHasChildren if at least one node references id
	//   - ErrNodeNotFound if no node exists with the given ID
	DeleteLeaf(ctx context.Context, id int64) error

	// CountNodes returns the number of nodes in the store.
	CountNodes(ctx context.Context) (int64, error)
}

// TranslationStore defines data access over node translations.
type TranslationStore interface {
	// Titles returns the title stored for each of nodeIDs in exactly the
	// given locale. Nodes without such a translation are absent from the map.
	Titles(ctx context.Context, nodeIDs []int64, locale string) (map[int64]string, error)

	// UpsertTranslation stores the title of a node for a locale, replacing
	// any existing one.
	// Returns:
	//   - ErrNodeNotFound if no node exists with the given ID
	UpsertTranslation(ctx context.Context, nodeID int64, locale, title string) error
}

// Repository is the full storage backend: both stores plus lifecycle hooks.
type Repository interface {
	NodeStore
	TranslationStore

	// Initialize performs any necessary setup for the repository.
	// This may include establishing database connections and running
	// migrations.
	Initialize(ctx context.Context) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Cleanup releases the resources held by the repository.
	Cleanup(ctx context.Context) error
}

// Common errors
var (
	// ErrNodeNotFound is returned when a requested node does not exist
	ErrNodeNotFound = errors.New("node not found")
	// ErrParentNotFound is returned when a node is created under a missing parent
	ErrParentNotFound = errors.New("parent node not found")
	// ErrHasChildren is returned when deleting a node that still has children
	ErrHasChildren = errors.New("node has children")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultLocale is the locale of the translation written on node creation
const DefaultLocale = models.DefaultLocale

// offset converts a 1-based page number into a row offset
func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
