package service

import (
	"context"
	"errors"

	"github.com/idelsangithub/node-tree-api/repository"
)

// DeleteOutcome is the result of a guarded delete
type DeleteOutcome int

const (
	Deleted DeleteOutcome = iota
	NotFound
	HasChildrenConflict
)

func (o DeleteOutcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case NotFound:
		return "not_found"
	case HasChildrenConflict:
		return "has_children"
	default:
		return "unknown"
	}
}

// DeletionGuard deletes nodes only when they have no children. The check
// and the delete run as one unit inside the store.
type DeletionGuard struct {
	store repository.NodeStore
}

// NewDeletionGuard creates a guard over the given node store
func NewDeletionGuard(store repository.NodeStore) *DeletionGuard {
	return &DeletionGuard{store: store}
}

// DeleteNode deletes a childless node. The error is non-nil only for store
// failures.
func (g *DeletionGuard) DeleteNode(ctx context.Context, id int64) (DeleteOutcome, error) {
	err := g.store.DeleteLeaf(ctx, id)
	switch {
	case err == nil:
		return Deleted, nil
	case errors.Is(err, repository.ErrHasChildren):
		return HasChildrenConflict, nil
	case errors.Is(err, repository.ErrNodeNotFound):
		return NotFound, nil
	default:
		return NotFound, err
	}
}
