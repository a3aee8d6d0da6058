package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/hearthstead/internal/agents"
	"github.com/talgya/hearthstead/internal/build"
	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

// buildRatePerTick is how much work one villager contributes per tick.
const buildRatePerTick = 1.0

// Engine drives the simulation forward one tick at a time.
//
// The engine owns the world while running. Shell operations that must see a
// consistent world (save, load) run through Suspend, which holds the loop
// off for their duration — no tick interleaves with them.
type Engine struct {
	World *World
	Queue *build.Manager

	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval
	Running  bool

	mu sync.Mutex // Serializes ticks against Suspend
}

// NewEngine creates an engine over a world, with the queue manager wired to
// the default grid placement finder.
func NewEngine(w *World) *Engine {
	e := &Engine{
		World:    w,
		Interval: 100 * time.Millisecond,
	}
	e.Queue = build.NewManager(&build.GridPlacer{
		Grid:     w.Grid,
		Occupied: e.tileTaken,
	})
	return e
}

// tileTaken is the occupancy predicate the placement finder scans with:
// structures and spawned work via the world, plus tiles the queue has
// already promised to orders that have not spawned yet.
func (e *Engine) tileTaken(t world.TileCoord) bool {
	return e.World.TileOccupied(t) || e.Queue.TileReserved(t)
}

// Run starts the simulation loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "tick", e.Tick)

	for e.Running {
		if e.World.Speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(50 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.mu.Lock()
		e.step()
		e.mu.Unlock()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.World.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.Running = false
}

// Suspend runs fn with the tick loop held off, so fn sees (and may replace)
// a world no tick is mutating.
func (e *Engine) Suspend(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// ReplaceWorld swaps in a freshly loaded world. Call it under Suspend.
// Queue intent is never persisted, so the manager restarts empty, wired to
// the new world's grid and occupancy.
func (e *Engine) ReplaceWorld(w *World) {
	e.World = w
	e.Queue = build.NewManager(&build.GridPlacer{
		Grid:     w.Grid,
		Occupied: e.tileTaken,
	})
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++
	w := e.World

	// Pull queued intent into the world: one new work item per idle builder.
	e.pullQueuedWork()

	for _, a := range w.Agents {
		switch a.State {
		case agents.StateMoving:
			if agents.Step(a) {
				a.State = e.arrivalState(a)
			}
		case agents.StateBuilding:
			e.advanceBuild(a)
		}
	}
}

// pullQueuedWork assigns idle villagers to queued construction, converting
// player intent into pending work entities.
func (e *Engine) pullQueuedWork() {
	w := e.World
	for _, a := range w.Agents {
		if a.State != agents.StateIdle {
			continue
		}
		// Existing work first, highest priority first.
		if p := e.nextUnassignedWork(a.SettlementID); p != nil {
			agents.SendTo(a, p.Tile, w.Grid.TileSize)
			continue
		}
		if !e.Queue.HasPending(a.SettlementID) {
			continue
		}
		typ, ok := e.Queue.PeekNext(a.SettlementID)
		if !ok {
			continue
		}
		placement, ok := e.Queue.DequeueNext(a.SettlementID, typ)
		if !ok {
			continue
		}
		p := w.SpawnWork(a.SettlementID, placement.Tile, build.StructureWork(typ), village.BuildWork(typ), priorityBuilding)
		agents.SendTo(a, p.Tile, w.Grid.TileSize)
	}
}

// nextUnassignedWork returns the highest-priority pending item in the
// settlement that no villager is already heading to or working.
func (e *Engine) nextUnassignedWork(settlementID village.SettlementID) *build.PendingWork {
	w := e.World
	var best *build.PendingWork
	for _, p := range w.Pending {
		if p.SettlementID != settlementID {
			continue
		}
		if e.workClaimed(p) {
			continue
		}
		if best == nil || p.Priority > best.Priority {
			best = p
		}
	}
	return best
}

func (e *Engine) workClaimed(p *build.PendingWork) bool {
	target := p.Tile.World(e.World.Grid.TileSize)
	for _, a := range e.World.Agents {
		if a.State == agents.StateMoving || a.State == agents.StateBuilding {
			if a.Target == target {
				return true
			}
		}
	}
	return false
}

// arrivalState decides what a villager does on reaching its target.
func (e *Engine) arrivalState(a *agents.Agent) agents.BehaviorState {
	tile := world.TileOf(a.Position, e.World.Grid.TileSize)
	for _, p := range e.World.Pending {
		if p.Tile == tile {
			return agents.StateBuilding
		}
	}
	return agents.StateIdle
}

// advanceBuild adds one tick of work to the site under the villager.
func (e *Engine) advanceBuild(a *agents.Agent) {
	w := e.World
	tile := world.TileOf(a.Position, w.Grid.TileSize)

	for _, p := range w.Pending {
		if p.Tile != tile {
			continue
		}
		if p.Advance(buildRatePerTick) {
			w.completeWork(p)
			w.Record(e.Tick, "build", fmt.Sprintf("%s completed at (%d,%d)", p.Type, p.Tile.X, p.Tile.Y))
			a.State = agents.StateIdle
		}
		return
	}

	// Site vanished (completed by someone else or removed) — stand down.
	a.State = agents.StateIdle
}
