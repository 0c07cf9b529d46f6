package behavior

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrDuplicateNode is returned when a node instance appears twice in a tree.
	ErrDuplicateNode = errors.New("behavior: node appears more than once in tree")
	// ErrForeignTree is returned when a blackboard bound to one tree is ticked by another.
	ErrForeignTree = errors.New("behavior: blackboard belongs to a different tree")
	// ErrNoBlackboard is returned when a snapshot carries no blackboard.
	ErrNoBlackboard = errors.New("behavior: snapshot has no blackboard")
)

// Tree owns a root node whose ids were assigned depth-first, pre-order,
// starting at 1. A Tree is immutable once built and is shared by pointer by
// every character running the behavior.
type Tree struct {
	name   string
	root   Node
	size   int
	logger *slog.Logger
}

// TreeOption configures NewTree.
type TreeOption func(*Tree)

// WithName labels the tree in logs.
func WithName(name string) TreeOption { return func(t *Tree) { t.name = name } }

// WithTreeLogger sets the logger used to report rejected ticks.
func WithTreeLogger(l *slog.Logger) TreeOption { return func(t *Tree) { t.logger = l } }

// NewTree assigns ids over root and returns the tree. Passing the same node
// instance at two places in the graph is an error, since both would share
// one id and one blackboard cursor.
func NewTree(root Node, opts ...TreeOption) (*Tree, error) {
	if root == nil {
		return nil, errors.New("behavior: nil root")
	}
	t := &Tree{root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	seen := make(map[Node]struct{})
	next := 1
	var assign func(Node) error
	assign = func(n Node) error {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: %T", ErrDuplicateNode, n)
		}
		seen[n] = struct{}{}
		n.SetID(next)
		next++
		if p, ok := n.(Parent); ok {
			for _, child := range p.Children() {
				if child == nil {
					return fmt.Errorf("behavior: nil child of node %d", p.ID())
				}
				if err := assign(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := assign(root); err != nil {
		return nil, err
	}
	t.size = next - 1
	return t, nil
}

// MustTree is NewTree for trees built from code.
func MustTree(root Node, opts ...TreeOption) *Tree {
	t, err := NewTree(root, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) Name() string { return t.name }

func (t *Tree) Root() Node { return t.root }

// Size is the number of nodes, which is also the highest assigned id.
func (t *Tree) Size() int { return t.size }

// Tick evaluates the tree for one character and returns the intents it
// produced. The root status is only used internally and is discarded.
func (t *Tree) Tick(snap Snapshot, delta float32) []Intent {
	_, intents, err := t.TickStatus(snap, delta)
	if err != nil {
		t.logger.Error("behavior tree tick rejected", "tree", t.name, "character", snap.ID, "error", err)
		return nil
	}
	return intents
}

// TickStatus is Tick with the root status and binding errors exposed.
func (t *Tree) TickStatus(snap Snapshot, delta float32) (Status, []Intent, error) {
	if snap.Blackboard == nil {
		return Failure, nil, ErrNoBlackboard
	}
	if !snap.Blackboard.bind(t) {
		return Failure, nil, ErrForeignTree
	}
	status, intents := t.root.Tick(snap, delta)
	return status, intents, nil
}

// Reset clears every node's progress from bb.
func (t *Tree) Reset(bb *Blackboard) { t.root.Reset(bb) }
