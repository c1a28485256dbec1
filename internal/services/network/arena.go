// Package network provides read-only traversal of the sponsor/placement
// tree. The tree is loaded once per rollover run into an arena of member
// records indexed by id, with child relationships held as index slices in
// placement order. Index references instead of pointers keep cycles
// detectable and make bottom-up aggregation cheap.
package network

import (
	"fmt"
	"sort"

	"vidanet/internal/models"
)

// Node is one member inside the arena.
type Node struct {
	Member   models.Member
	Children []uint
}

// Arena is an immutable snapshot of the network graph.
type Arena struct {
	nodes map[uint]*Node
	roots []uint
	order []uint
}

// BuildArena indexes members into an arena. Members must be the complete
// set; a sponsor reference to an id outside the set, or any cycle in the
// sponsor chain, returns ErrGraphIntegrity.
func BuildArena(members []models.Member) (*Arena, error) {
	a := &Arena{
		nodes: make(map[uint]*Node, len(members)),
		order: make([]uint, 0, len(members)),
	}
	for _, m := range members {
		if _, dup := a.nodes[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate member %d", ErrGraphIntegrity, m.ID)
		}
		a.nodes[m.ID] = &Node{Member: m}
		a.order = append(a.order, m.ID)
	}
	for _, m := range members {
		if m.SponsorID == nil {
			a.roots = append(a.roots, m.ID)
			continue
		}
		parent, ok := a.nodes[*m.SponsorID]
		if !ok {
			return nil, fmt.Errorf("%w: member %d references unknown sponsor %d", ErrGraphIntegrity, m.ID, *m.SponsorID)
		}
		if *m.SponsorID == m.ID {
			return nil, fmt.Errorf("%w: member %d sponsors itself", ErrGraphIntegrity, m.ID)
		}
		parent.Children = append(parent.Children, m.ID)
	}

	// Deterministic traversal: children ordered by placement position,
	// member id as tiebreaker.
	for _, node := range a.nodes {
		children := node.Children
		sort.Slice(children, func(i, j int) bool {
			ci, cj := a.nodes[children[i]].Member, a.nodes[children[j]].Member
			if ci.Position != cj.Position {
				return ci.Position < cj.Position
			}
			return ci.ID < cj.ID
		})
	}
	sort.Slice(a.roots, func(i, j int) bool { return a.roots[i] < a.roots[j] })

	// A cycle of sponsored members contains no root, so walking every
	// member's sponsor chain is the check that catches it.
	for _, id := range a.order {
		if _, err := a.Ancestors(id); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Member returns the member record for id.
func (a *Arena) Member(id uint) (*models.Member, bool) {
	node, ok := a.nodes[id]
	if !ok {
		return nil, false
	}
	return &node.Member, true
}

// Size returns the number of members in the arena.
func (a *Arena) Size() int {
	return len(a.nodes)
}

// Roots returns the ids of members without a sponsor, ascending.
func (a *Arena) Roots() []uint {
	return a.roots
}

// Members returns all member ids in insertion order.
func (a *Arena) Members() []uint {
	return a.order
}

// DirectReferrals returns the member's direct downline in placement order.
func (a *Arena) DirectReferrals(id uint) []uint {
	node, ok := a.nodes[id]
	if !ok {
		return nil
	}
	return node.Children
}

// Ancestors returns the ordered upline of a member, nearest first, up to
// the root. Returns ErrGraphIntegrity if the sponsor chain cycles.
func (a *Arena) Ancestors(id uint) ([]uint, error) {
	node, ok := a.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMemberNotFound, id)
	}
	var line []uint
	seen := map[uint]bool{id: true}
	current := node.Member.SponsorID
	for current != nil {
		if seen[*current] {
			return nil, fmt.Errorf("%w: cycle through member %d", ErrGraphIntegrity, *current)
		}
		seen[*current] = true
		line = append(line, *current)
		parent, ok := a.nodes[*current]
		if !ok {
			return nil, fmt.Errorf("%w: dangling sponsor %d", ErrGraphIntegrity, *current)
		}
		current = parent.Member.SponsorID
	}
	return line, nil
}

// WalkDownline traverses the member's downline depth-first in placement
// order without materializing the subtree, calling fn with each descendant
// and its depth relative to id (direct referral = 1). maxDepth <= 0 means
// unlimited. fn returning an error stops the walk and propagates it.
func (a *Arena) WalkDownline(id uint, maxDepth int, fn func(memberID uint, depth int) error) error {
	node, ok := a.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrMemberNotFound, id)
	}
	return a.walk(node, 1, maxDepth, fn)
}

func (a *Arena) walk(node *Node, depth, maxDepth int, fn func(uint, int) error) error {
	if maxDepth > 0 && depth > maxDepth {
		return nil
	}
	for _, childID := range node.Children {
		if err := fn(childID, depth); err != nil {
			return err
		}
		if err := a.walk(a.nodes[childID], depth+1, maxDepth, fn); err != nil {
			return err
		}
	}
	return nil
}

// MembersAtDepth returns the descendants exactly depth levels below id,
// in placement order.
func (a *Arena) MembersAtDepth(id uint, depth int) ([]uint, error) {
	var out []uint
	err := a.WalkDownline(id, depth, func(memberID uint, d int) error {
		if d == depth {
			out = append(out, memberID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
