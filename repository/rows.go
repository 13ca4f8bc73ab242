package repository

import (
	"database/sql"
	"fmt"

	"github.com/idelsangithub/node-tree-api/models"
)

const nodeColumns = "id, parent_id, created_at, updated_at"

// scanNode scans a row into a Node
func scanNode(scanner interface{ Scan(...any) error }) (*models.Node, error) {
	var node models.Node
	var parentID sql.NullInt64
	if err := scanner.Scan(&node.ID, &parentID, &node.CreatedAt, &node.UpdatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		node.ParentID = &parentID.Int64
	}
	return &node, nil
}

// scanNodes drains rows into a slice of nodes and closes them
func scanNodes(rows *sql.Rows) ([]*models.Node, error) {
	defer rows.Close()

	nodes := make([]*models.Node, 0)
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

// scanIDs drains a single-column id result set
func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}
	return ids, nil
}

// scanTitles drains (node_id, title) rows into titles
func scanTitles(rows *sql.Rows, titles map[int64]string) error {
	defer rows.Close()

	for rows.Next() {
		var nodeID int64
		var title string
		if err := rows.Scan(&nodeID, &title); err != nil {
			return fmt.Errorf("error scanning translation: %w", err)
		}
		titles[nodeID] = title
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating translations: %w", err)
	}
	return nil
}
