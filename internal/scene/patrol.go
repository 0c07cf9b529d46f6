package scene

import (
	"log/slog"

	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/geom"
)

// TargetKey is the blackboard key the patrol tree keeps its waypoint under.
const TargetKey = "target_pos"

// PatrolOption configures PatrolTree.
type PatrolOption func(*patrolConfig)

type patrolConfig struct {
	hold   *behavior.Condition
	logger *slog.Logger
}

// WithHold keeps a character at its waypoint while cond holds. The
// condition is checked each time the character reaches a waypoint.
func WithHold(cond *behavior.Condition) PatrolOption {
	return func(c *patrolConfig) { c.hold = cond }
}

// WithPatrolLogger sets the tree's logger.
func WithPatrolLogger(l *slog.Logger) PatrolOption {
	return func(c *patrolConfig) { c.logger = l }
}

// PatrolTree walks route forever, pausing wait seconds at each waypoint:
//
//	Selector(Sequence(NextWaypoint, Wait, IsAtTarget), MoveToTarget)
//
// With WithHold the hold condition is tried first: Selector(hold, patrol).
func PatrolTree(route []geom.Vec2i, cellSize, wait float32, opts ...PatrolOption) (*behavior.Tree, error) {
	var cfg patrolConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	var root behavior.Node = behavior.NewSelector(
		behavior.NewSequence(
			behavior.NewNextWaypoint(route, TargetKey, cellSize),
			behavior.NewWait(wait),
			behavior.NewIsAtTarget(TargetKey),
		),
		behavior.NewMoveToTarget(TargetKey),
	)
	if cfg.hold != nil {
		root = behavior.NewSelector(cfg.hold, root)
	}
	treeOpts := []behavior.TreeOption{behavior.WithName("patrol")}
	if cfg.logger != nil {
		treeOpts = append(treeOpts, behavior.WithTreeLogger(cfg.logger))
	}
	return behavior.NewTree(root, treeOpts...)
}
