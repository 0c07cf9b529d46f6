package behavior

import (
	bt "github.com/joeycumines/go-behaviortree"
)

// Status is the ternary outcome of a tick. It is go-behaviortree's Status so
// trees built here compose with bt.Node, bt.Ticker and bt.Manager.
type Status = bt.Status

const (
	Running = bt.Running
	Success = bt.Success
	Failure = bt.Failure
)
