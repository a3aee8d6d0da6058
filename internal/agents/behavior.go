package agents

import (
	"math"

	"github.com/talgya/hearthstead/internal/world"
)

// WalkSpeed is how far a villager moves per tick, in world units.
const WalkSpeed = 4.0

// arriveEpsilon is the distance at which a villager counts as arrived.
const arriveEpsilon = 0.5

// Step advances the villager toward its target by one tick of movement.
// Returns true when the villager has arrived. Path planning is an external
// concern; this only follows the straight segment to the current target.
func Step(a *Agent) bool {
	dx := a.Target.X - a.Position.X
	dy := a.Target.Y - a.Position.Y
	dist := math.Hypot(dx, dy)

	if dist <= arriveEpsilon {
		a.Position = a.Target
		return true
	}

	step := WalkSpeed
	if step > dist {
		step = dist
	}
	a.Position.X += dx / dist * step
	a.Position.Y += dy / dist * step
	return false
}

// SendTo puts the villager in motion toward a tile.
func SendTo(a *Agent, t world.TileCoord, tileSize int) {
	a.Target = t.World(tileSize)
	a.State = StateMoving
	a.Path = nil
}
