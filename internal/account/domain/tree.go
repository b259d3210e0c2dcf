package domain

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// GroupTree is an arena over account groups: nodes are indexed by ID and
// parent/children stay ID references resolved through the arena, so no
// cyclic ownership forms between group values.
type GroupTree struct {
	nodes    map[snowflake.ID]*AccountGroup
	children map[snowflake.ID][]snowflake.ID
	roots    []snowflake.ID
}

// BuildTree assembles the arena and verifies the forest invariant: every
// parent reference resolves and no path loops back on itself.
func BuildTree(groups []AccountGroup) (*GroupTree, error) {
	t := &GroupTree{
		nodes:    make(map[snowflake.ID]*AccountGroup, len(groups)),
		children: make(map[snowflake.ID][]snowflake.ID),
	}
	for i := range groups {
		g := &groups[i]
		if _, exists := t.nodes[g.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGroup, g.Name)
		}
		t.nodes[g.ID] = g
	}
	for _, g := range t.nodes {
		if g.ParentID == nil {
			t.roots = append(t.roots, g.ID)
			continue
		}
		if _, ok := t.nodes[*g.ParentID]; !ok {
			return nil, fmt.Errorf("%w: group %s references %d", ErrParentNotFound, g.Name, *g.ParentID)
		}
		t.children[*g.ParentID] = append(t.children[*g.ParentID], g.ID)
	}
	for id := range t.nodes {
		if err := t.checkAcyclic(id); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *GroupTree) checkAcyclic(start snowflake.ID) error {
	seen := map[snowflake.ID]bool{}
	for id := start; ; {
		if seen[id] {
			return fmt.Errorf("%w: starting at %d", ErrGroupCycle, start)
		}
		seen[id] = true
		node := t.nodes[id]
		if node.ParentID == nil {
			return nil
		}
		id = *node.ParentID
	}
}

// Get resolves a node by ID.
func (t *GroupTree) Get(id snowflake.ID) (*AccountGroup, bool) {
	g, ok := t.nodes[id]
	return g, ok
}

// Children returns the direct child IDs of a node.
func (t *GroupTree) Children(id snowflake.ID) []snowflake.ID {
	return t.children[id]
}

// Roots returns the top-level group IDs.
func (t *GroupTree) Roots() []snowflake.ID {
	return t.roots
}

// NatureOf walks up the arena to the root and returns its nature; group
// natures are authoritative at the root of each subtree.
func (t *GroupTree) NatureOf(id snowflake.ID) (Nature, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return "", false
	}
	for node.ParentID != nil {
		parent, ok := t.nodes[*node.ParentID]
		if !ok {
			break
		}
		node = parent
	}
	return node.Nature, true
}

// Descendants returns every group ID under the given node, depth-first.
func (t *GroupTree) Descendants(id snowflake.ID) []snowflake.ID {
	var out []snowflake.ID
	stack := append([]snowflake.ID(nil), t.children[id]...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, next)
		stack = append(stack, t.children[next]...)
	}
	return out
}
