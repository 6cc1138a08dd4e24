package mccfr

import (
	"github.com/jmy12k3/robopoker/internal/game"
)

// Chance is the player index of deal nodes.
const Chance = -1

// Data is the payload of one tree node: the concrete game state and the
// information-set key it maps to under the abstraction.
type Data struct {
	Game   game.Game
	Bucket Bucket
}

// Branch links a parent to one child through an edge.
type Branch struct {
	Edge Edge
	Node int
}

// Node is an arena entry. Parents and children refer to each other by index
// only; the tree is a DAG through shared buckets, never through pointers.
type Node struct {
	Index    int
	Parent   int // -1 at the root
	Incoming Edge
	Path     Path // betting path from the root
	Data     Data
	Children []Branch
}

// Tree is an arena of sampled nodes plus the secondary infoset index from
// bucket to the walker's nodes carrying it.
type Tree struct {
	arena    []Node
	infosets map[Bucket][]int
}

// NewTree starts an empty tree.
func NewTree() *Tree {
	return &Tree{infosets: make(map[Bucket][]int)}
}

// AddRoot installs the root node.
func (t *Tree) AddRoot(d Data) int {
	t.arena = append(t.arena, Node{Index: 0, Parent: -1, Path: NewPath(nil), Data: d})
	return 0
}

// Add appends a child reached from parent through e.
func (t *Tree) Add(parent int, e Edge, d Data) int {
	idx := len(t.arena)
	t.arena = append(t.arena, Node{
		Index:    idx,
		Parent:   parent,
		Incoming: e,
		Path:     t.arena[parent].Path.Extend(e),
		Data:     d,
	})
	t.arena[parent].Children = append(t.arena[parent].Children, Branch{Edge: e, Node: idx})
	return idx
}

// At returns the node with the given handle.
func (t *Tree) At(i int) *Node { return &t.arena[i] }

// Size is the number of sampled nodes.
func (t *Tree) Size() int { return len(t.arena) }

// Index records a node under its bucket in the infoset index.
func (t *Tree) Index(i int) {
	b := t.arena[i].Data.Bucket
	t.infosets[b] = append(t.infosets[b], i)
}

// Infosets exposes the bucket to node-handles index.
func (t *Tree) Infosets() map[Bucket][]int { return t.infosets }

// Follow resolves the child reached through e; ok is false when the edge
// was not sampled.
func (t *Tree) Follow(i int, e Edge) (int, bool) {
	for _, b := range t.arena[i].Children {
		if b.Edge == e {
			return b.Node, true
		}
	}
	return 0, false
}

// Leaves collects the terminal handles beneath a node.
func (t *Tree) Leaves(i int) []int {
	if len(t.arena[i].Children) == 0 {
		return []int{i}
	}
	var out []int
	for _, b := range t.arena[i].Children {
		out = append(out, t.Leaves(b.Node)...)
	}
	return out
}

// Player returns the node's acting player, or Chance for deal nodes and
// terminals.
func (n *Node) Player() int {
	return n.Data.Game.Actor()
}
