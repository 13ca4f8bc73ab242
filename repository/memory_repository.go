package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/idelsangithub/node-tree-api/models"
)

// MemoryRepository implements Repository in process memory.
// It backs tests and the Lambda demo deployment.
type MemoryRepository struct {
	mu           sync.RWMutex
	nodes        map[int64]*models.Node
	translations map[int64]map[string]string
	nextID       int64
	childIDCalls int
	now          func() time.Time
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nodes:        make(map[int64]*models.Node),
		translations: make(map[int64]map[string]string),
		now:          time.Now,
	}
}

// SetClock overrides the time source used for created_at
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Initialize performs any necessary setup
func (m *MemoryRepository) Initialize(ctx context.Context) error {
	return nil
}

// Ping always succeeds
func (m *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Cleanup drops every stored node
func (m *MemoryRepository) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[int64]*models.Node)
	m.translations = make(map[int64]map[string]string)
	m.nextID = 0
	m.childIDCalls = 0
	return nil
}

// CreateNode creates a new node with its default translation
func (m *MemoryRepository) CreateNode(ctx context.Context, parentID *int64) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if parentID != nil {
		if _, ok := m.nodes[*parentID]; !ok {
			return nil, ErrParentNotFound
		}
	}

	m.nextID++
	now := m.now().UTC()
	node := &models.Node{
		ID:        m.nextID,
		ParentID:  copyID(parentID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.nodes[node.ID] = node
	m.translations[node.ID] = map[string]string{
		DefaultLocale: models.FallbackTitle(node.ID),
	}

	return copyNode(node), nil
}

// GetNode retrieves a node by ID
func (m *MemoryRepository) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return copyNode(node), nil
}

// ListRoots returns a page of root nodes
func (m *MemoryRepository) ListRoots(ctx context.Context, page, pageSize int) ([]*models.Node, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.paginate(func(node *models.Node) bool {
		return node.ParentID == nil
	}, page, pageSize), m.count(func(node *models.Node) bool {
		return node.ParentID == nil
	}), nil
}

// ListChildren returns a page of direct children
func (m *MemoryRepository) ListChildren(ctx context.Context, parentID int64, page, pageSize int) ([]*models.Node, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	isChild := func(node *models.Node) bool {
		return node.ParentID != nil && *node.ParentID == parentID
	}
	return m.paginate(isChild, page, pageSize), m.count(isChild), nil
}

// ChildIDs returns the children of all given parents in one pass
func (m *MemoryRepository) ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.childIDCalls++

	parents := make(map[int64]bool, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = true
	}

	var ids []int64
	for id, node := range m.nodes {
		if node.ParentID != nil && parents[*node.ParentID] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids, nil
}

// ChildIDCalls returns how many times ChildIDs has been called
func (m *MemoryRepository) ChildIDCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.childIDCalls
}

// ListByIDs returns a page of the given nodes
func (m *MemoryRepository) ListByIDs(ctx context.Context, ids []int64, page, pageSize int) ([]*models.Node, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	isWanted := func(node *models.Node) bool {
		return wanted[node.ID]
	}
	return m.paginate(isWanted, page, pageSize), m.count(isWanted), nil
}

// HasChildren reports whether a node has at least one child
func (m *MemoryRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasChildren(id), nil
}

// DeleteLeaf deletes a childless node and its translations under one lock
func (m *MemoryRepository) DeleteLeaf(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	if m.hasChildren(id) {
		return ErrHasChildren
	}

	delete(m.nodes, id)
	delete(m.translations, id)
	return nil
}

// CountNodes returns the number of stored nodes
func (m *MemoryRepository) CountNodes(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.nodes)), nil
}

// Titles returns the stored titles of the given nodes for one locale
func (m *MemoryRepository) Titles(ctx context.Context, nodeIDs []int64, locale string) (map[int64]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	titles := make(map[int64]string, len(nodeIDs))
	for _, id := range nodeIDs {
		if title, ok := m.translations[id][locale]; ok {
			titles[id] = title
		}
	}
	return titles, nil
}

// UpsertTranslation stores a node title for a locale
func (m *MemoryRepository) UpsertTranslation(ctx context.Context, nodeID int64, locale, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[nodeID]; !ok {
		return ErrNodeNotFound
	}
	if m.translations[nodeID] == nil {
		m.translations[nodeID] = make(map[string]string)
	}
	m.translations[nodeID][locale] = title
	return nil
}

// hasChildren must be called with the lock held
func (m *MemoryRepository) hasChildren(id int64) bool {
	for _, node := range m.nodes {
		if node.ParentID != nil && *node.ParentID == id {
			return true
		}
	}
	return false
}

// count must be called with the lock held
func (m *MemoryRepository) count(match func(*models.Node) bool) int64 {
	var total int64
	for _, node := range m.nodes {
		if match(node) {
			total++
		}
	}
	return total
}

// paginate must be called with the lock held
func (m *MemoryRepository) paginate(match func(*models.Node) bool, page, pageSize int) []*models.Node {
	var matched []*models.Node
	for _, node := range m.nodes {
		if match(node) {
			matched = append(matched, node)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	start := offset(page, pageSize)
	result := make([]*models.Node, 0)
	if start >= len(matched) {
		return result
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	for _, node := range matched[start:end] {
		result = append(result, copyNode(node))
	}
	return result
}

func copyNode(node *models.Node) *models.Node {
	c := *node
	c.ParentID = copyID(node.ParentID)
	return &c
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
