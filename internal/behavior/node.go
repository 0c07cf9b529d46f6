package behavior

// Node is a behavior tree node. Nodes are shared read-only between every
// character ticking the same Tree, so Tick must keep all per-character
// progress in snap.Blackboard.
type Node interface {
	ID() int
	SetID(id int)
	// Reset clears whatever progress the node keeps in bb.
	Reset(bb *Blackboard)
	Tick(snap Snapshot, delta float32) (Status, []Intent)
}

// Parent is implemented by nodes with children, for id assignment and Reset.
type Parent interface {
	Node
	Children() []Node
}

// nodeID is embedded by every node to carry its tree-assigned id.
type nodeID struct{ id int }

func (n *nodeID) ID() int { return n.id }

func (n *nodeID) SetID(id int) { n.id = id }

func (n *nodeID) key(suffix string) string { return NodeKey(n.id, suffix) }

// composite holds the child list and cursor handling shared by Sequence and
// Selector.
type composite struct {
	nodeID
	children []Node
}

func (c *composite) Children() []Node { return c.children }

func (c *composite) Reset(bb *Blackboard) {
	bb.Delete(c.key("idx"))
	for _, child := range c.children {
		child.Reset(bb)
	}
}

func (c *composite) cursor(bb *Blackboard) int {
	idx, ok := bb.GetInt(c.key("idx"))
	if !ok || idx < 0 || idx >= len(c.children) {
		return 0
	}
	return idx
}

// Sequence ticks its children in order, resuming at the child that last
// returned Running. It fails on the first Failure and succeeds only when
// every child has succeeded.
type Sequence struct{ composite }

func NewSequence(children ...Node) *Sequence {
	return &Sequence{composite{children: children}}
}

func (s *Sequence) Tick(snap Snapshot, delta float32) (Status, []Intent) {
	bb := snap.Blackboard
	key := s.key("idx")
	var out []Intent
	for i := s.cursor(bb); i < len(s.children); i++ {
		status, intents := s.children[i].Tick(snap, delta)
		out = append(out, intents...)
		switch status {
		case Success:
			continue
		case Running:
			bb.Set(key, Int(i))
			return Running, out
		default:
			bb.Set(key, Int(0))
			return Failure, out
		}
	}
	bb.Set(key, Int(0))
	return Success, out
}

// Selector ticks its children in order, resuming at the child that last
// returned Running. It succeeds on the first Success and fails only when
// every child has failed.
type Selector struct{ composite }

func NewSelector(children ...Node) *Selector {
	return &Selector{composite{children: children}}
}

func (s *Selector) Tick(snap Snapshot, delta float32) (Status, []Intent) {
	bb := snap.Blackboard
	key := s.key("idx")
	var out []Intent
	for i := s.cursor(bb); i < len(s.children); i++ {
		status, intents := s.children[i].Tick(snap, delta)
		out = append(out, intents...)
		switch status {
		case Success:
			bb.Set(key, Int(0))
			return Success, out
		case Running:
			bb.Set(key, Int(i))
			return Running, out
		}
	}
	bb.Set(key, Int(0))
	return Failure, out
}

var (
	_ Parent = (*Sequence)(nil)
	_ Parent = (*Selector)(nil)
)
