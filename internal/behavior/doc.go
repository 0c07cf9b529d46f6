// Package behavior implements the behavior tree engine shared by every
// character: a Blackboard of tagged values, composite and leaf nodes, and the
// Tree that assigns node ids and evaluates a character Snapshot into a list
// of Intents.
//
// # One tree, many characters
//
// A Tree is built once and shared by pointer. Nodes never mutate themselves
// during Tick. Everything that differs between characters, including the
// resumption cursor of Sequence and Selector and the timers of stateful
// leaves, lives in the character's Blackboard under keys derived from the
// node id:
//
//	"<id>.idx"    composite cursor
//	"<id>.nxw"    NextWaypoint route index
//	"<id>.timer"  Wait elapsed time
//
// Ids are unique within one Tree only, so a Blackboard is bound to the first
// Tree that ticks it. Ticking it with another Tree is rejected with
// ErrForeignTree; Blackboard.Rebind drops the synthetic keys and moves the
// binding.
//
// # Status
//
// Status is go-behaviortree's bt.Status. Tree.Node exposes a tree as a
// bt.Node so it can be driven by bt.Ticker and composed with bt ticks.
package behavior
