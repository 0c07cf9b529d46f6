package behavior

import (
	bt "github.com/joeycumines/go-behaviortree"
)

// Node adapts the tree into a go-behaviortree node bound to one character.
// Each bt tick pulls a fresh snapshot, ticks the tree and hands any intents
// to sink. Like Tick, the tree status is discarded: the node reports Success
// unless the blackboard binding rejects the tick.
func (t *Tree) Node(snapshot func() Snapshot, delta float32, sink func([]Intent)) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		_, intents, err := t.TickStatus(snapshot(), delta)
		if err != nil {
			return bt.Failure, err
		}
		if sink != nil && len(intents) > 0 {
			sink(intents)
		}
		return bt.Success, nil
	})
}
