package models

import "time"

// DefaultLocale is used when a request carries no Accept-Language header
const DefaultLocale = "en"

// DefaultTimezone is used when a request carries no X-Timezone header
const DefaultTimezone = "UTC"

// TimestampLayout is the layout of created_at in listing responses
const TimestampLayout = "2006-01-02 15:04:05"

// Node represents a single entry of the forest
type Node struct {
	ID        int64     `json:"id"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRoot reports whether the node has no parent
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// Translation is a locale-specific title attached to a node
type Translation struct {
	NodeID int64  `json:"node_id"`
	Locale string `json:"locale"`
	Title  string `json:"title"`
}

// NodeItem is a node as it appears in a listing response
type NodeItem struct {
	ID        int64  `json:"id"`
	Parent    *int64 `json:"parent"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// Page is the paginated envelope returned by every listing endpoint
type Page struct {
	Total       int64       `json:"total"`
	PerPage     int         `json:"per_page"`
	CurrentPage int         `json:"current_page"`
	LastPage    int         `json:"last_page"`
	Items       []*NodeItem `json:"items"`
}

// NewPage builds an envelope and derives the last page from the total
func NewPage(items []*NodeItem, total int64, perPage, currentPage int) *Page {
	if items == nil {
		items = make([]*NodeItem, 0)
	}
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Page{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: currentPage,
		LastPage:    lastPage,
		Items:       items,
	}
}
