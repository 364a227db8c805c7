// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package tree

import (
	"errors"
	"fmt"
)

// ErrCyclicParent is returned when a page would become its own ancestor.
var ErrCyclicParent = errors.New("page cannot be placed below itself")

// ErrUnknownNode is returned when an operation names a page missing from
// the forest.
var ErrUnknownNode = errors.New("page not in tree")

// Node is a page reduced to its parent pointer. The order of a []Node
// slice is the sibling order: roots and children are numbered in the order
// they appear.
type Node struct {
	ID       int64
	ParentID int64 // 0 for a root
}

// Rebuild numbers a forest from parent pointers. Roots get tree ids 1..n in
// slice order; each tree is numbered depth first from 1.
func Rebuild(nodes []Node) ([]Position, error) {
	known := make(map[int64]bool, len(nodes))
	for _, n := range nodes {
		if known[n.ID] {
			return nil, fmt.Errorf("duplicate page %d", n.ID)
		}
		known[n.ID] = true
	}

	children := make(map[int64][]int64, len(nodes))
	var roots []int64
	for _, n := range nodes {
		if n.ParentID == 0 {
			roots = append(roots, n.ID)
			continue
		}
		if !known[n.ParentID] {
			return nil, fmt.Errorf("page %d: parent %d: %w", n.ID, n.ParentID, ErrUnknownNode)
		}
		children[n.ParentID] = append(children[n.ParentID], n.ID)
	}

	parent := make(map[int64]int64, len(nodes))
	for _, n := range nodes {
		parent[n.ID] = n.ParentID
	}

	out := make([]Position, 0, len(nodes))
	for i, root := range roots {
		treeID := int64(i + 1)
		counter := int64(0)
		var walk func(id, level int64)
		walk = func(id, level int64) {
			counter++
			idx := len(out)
			out = append(out, Position{TreeID: treeID, ParentID: parent[id], Left: counter, Level: level, PageID: id})
			for _, child := range children[id] {
				walk(child, level+1)
			}
			counter++
			out[idx].Right = counter
		}
		walk(root, 0)
	}

	// Nodes not reached from any root sit on a parent cycle.
	if len(out) != len(nodes) {
		return nil, ErrCyclicParent
	}
	return out, nil
}

// IsDescendant reports whether id lies in the subtree below ancestor.
func IsDescendant(nodes []Node, ancestor, id int64) bool {
	parent := make(map[int64]int64, len(nodes))
	for _, n := range nodes {
		parent[n.ID] = n.ParentID
	}
	seen := make(map[int64]bool)
	for cur := parent[id]; cur != 0 && !seen[cur]; cur = parent[cur] {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
	}
	return false
}

// Move makes id the last child of newParent (0 for a new root placed after
// the existing roots). The returned slice is a new ordering; nodes is not
// modified.
func Move(nodes []Node, id, newParent int64) ([]Node, error) {
	idx := -1
	parentFound := newParent == 0
	for i, n := range nodes {
		if n.ID == id {
			idx = i
		}
		if n.ID == newParent {
			parentFound = true
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("page %d: %w", id, ErrUnknownNode)
	}
	if !parentFound {
		return nil, fmt.Errorf("parent %d: %w", newParent, ErrUnknownNode)
	}
	if newParent == id || IsDescendant(nodes, id, newParent) {
		return nil, ErrCyclicParent
	}

	out := make([]Node, 0, len(nodes))
	out = append(out, nodes[:idx]...)
	out = append(out, nodes[idx+1:]...)
	return append(out, Node{ID: id, ParentID: newParent}), nil
}

// Remove drops id and its whole subtree.
func Remove(nodes []Node, id int64) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == id || IsDescendant(nodes, id, n.ID) {
			continue
		}
		out = append(out, n)
	}
	return out
}
