// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tree validates and computes nested-set encodings of the page
// forest. Every page carries a tree id, a parent, left and right bounds and
// a level; bounds of a subtree nest strictly inside its parent's bounds.
package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPosition marks a submitted encoding that is malformed or
// structurally inconsistent.
var ErrInvalidPosition = errors.New("invalid tree position")

// Position is the nested-set placement of one page.
type Position struct {
	TreeID   int64
	ParentID int64 // 0 for a root
	Left     int64
	Right    int64
	Level    int64
	PageID   int64
}

// Tuple returns p in wire order: tree_id, parent_id, left, right, level, page_id.
func (p Position) Tuple() [6]int64 {
	return [6]int64{p.TreeID, p.ParentID, p.Left, p.Right, p.Level, p.PageID}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPosition, fmt.Sprintf(format, args...))
}

// ParsePayload decodes a JSON array of six-integer arrays. It only checks
// shape and ranges; call Validate for structural checks.
func ParsePayload(raw []byte) ([]Position, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, invalid("empty payload")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var tuples [][]json.Number
	if err := dec.Decode(&tuples); err != nil {
		return nil, invalid("decoding payload: %v", err)
	}
	if dec.More() {
		return nil, invalid("trailing data after payload")
	}

	positions := make([]Position, 0, len(tuples))
	seen := make(map[int64]bool, len(tuples))
	for i, tuple := range tuples {
		if len(tuple) != 6 {
			return nil, invalid("entry %d has %d values, want 6", i, len(tuple))
		}
		var v [6]int64
		for j, n := range tuple {
			x, err := n.Int64()
			if err != nil {
				return nil, invalid("entry %d value %d: %q is not an integer", i, j, n.String())
			}
			v[j] = x
		}
		p := Position{TreeID: v[0], ParentID: v[1], Left: v[2], Right: v[3], Level: v[4], PageID: v[5]}
		if err := p.checkRanges(); err != nil {
			return nil, invalid("entry %d: %v", i, err)
		}
		if seen[p.PageID] {
			return nil, invalid("page %d appears more than once", p.PageID)
		}
		seen[p.PageID] = true
		positions = append(positions, p)
	}
	return positions, nil
}

func (p Position) checkRanges() error {
	switch {
	case p.PageID <= 0:
		return fmt.Errorf("page id %d must be positive", p.PageID)
	case p.TreeID <= 0:
		return fmt.Errorf("tree id %d must be positive", p.TreeID)
	case p.ParentID < 0:
		return fmt.Errorf("parent id %d must not be negative", p.ParentID)
	case p.ParentID == p.PageID:
		return fmt.Errorf("page %d is its own parent", p.PageID)
	case p.Left < 1:
		return fmt.Errorf("left bound %d must be at least 1", p.Left)
	case p.Right <= p.Left:
		return fmt.Errorf("right bound %d must exceed left bound %d", p.Right, p.Left)
	case p.Level < 0:
		return fmt.Errorf("level %d must not be negative", p.Level)
	}
	return nil
}

// Validate checks that positions describe well-formed trees. Within one
// tree id, intervals never share a bound and never partially overlap, each
// tree has exactly one root, every parent is the page of the closest
// enclosing interval and every level equals the nesting depth.
func Validate(positions []Position) error {
	byTree := make(map[int64][]Position)
	var treeIDs []int64
	for _, p := range positions {
		if err := p.checkRanges(); err != nil {
			return invalid("page %d: %v", p.PageID, err)
		}
		if _, ok := byTree[p.TreeID]; !ok {
			treeIDs = append(treeIDs, p.TreeID)
		}
		byTree[p.TreeID] = append(byTree[p.TreeID], p)
	}
	sort.Slice(treeIDs, func(i, j int) bool { return treeIDs[i] < treeIDs[j] })

	for _, id := range treeIDs {
		if err := validateTree(id, byTree[id]); err != nil {
			return err
		}
	}
	return nil
}

func validateTree(treeID int64, nodes []Position) error {
	bounds := make(map[int64]int64, 2*len(nodes))
	for _, n := range nodes {
		for _, b := range []int64{n.Left, n.Right} {
			if other, ok := bounds[b]; ok {
				return invalid("tree %d: pages %d and %d share bound %d", treeID, other, n.PageID, b)
			}
			bounds[b] = n.PageID
		}
	}

	sorted := make([]Position, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Left < sorted[j].Left })

	var (
		stack []Position
		roots int
	)
	for _, n := range sorted {
		for len(stack) > 0 && stack[len(stack)-1].Right < n.Left {
			stack = stack[:len(stack)-1]
		}

		var wantParent int64
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if n.Right > top.Right {
				return invalid("tree %d: page %d [%d,%d] partially overlaps page %d [%d,%d]",
					treeID, n.PageID, n.Left, n.Right, top.PageID, top.Left, top.Right)
			}
			wantParent = top.PageID
		} else {
			roots++
			if roots > 1 {
				return invalid("tree %d has more than one root", treeID)
			}
		}

		if n.ParentID != wantParent {
			return invalid("tree %d: page %d has parent %d, its bounds place it under %d",
				treeID, n.PageID, n.ParentID, wantParent)
		}
		if depth := int64(len(stack)); n.Level != depth {
			return invalid("tree %d: page %d has level %d, want %d", treeID, n.PageID, n.Level, depth)
		}
		stack = append(stack, n)
	}
	return nil
}
