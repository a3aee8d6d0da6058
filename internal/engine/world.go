// Package engine provides the world container and the tick-based loop that
// turns queued build intent into construction work.
package engine

import (
	"sort"

	"github.com/talgya/hearthstead/internal/agents"
	"github.com/talgya/hearthstead/internal/build"
	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

// World is the aggregate root for all mutable game state. Exactly one World
// is live at a time; loading a snapshot replaces it wholesale.
type World struct {
	Grid *world.Grid

	Settlements []*village.Settlement
	Structures  []*village.Structure
	Agents      []*agents.Agent
	Roads       []*village.Road
	Pending     []*build.PendingWork

	// Scalar game state.
	Crowns    int64
	Stockpile village.Stockpile
	Speed     float64

	// ID counters, monotonic, never reused.
	NextSettlementID uint64
	NextStructureID  uint64
	NextAgentID      uint64
	NextRoadID       uint64
	NextWorkID       uint64

	// Derived lookups, rebuilt after load or bulk mutation.
	SettlementIndex map[village.SettlementID]*village.Settlement
	StructureIndex  map[uint64]*village.Structure
	AgentIndex      map[agents.AgentID]*agents.Agent

	// Events is the recent-event buffer, drained into the journal.
	Events []Event
}

// NewWorld creates an empty world over the given grid.
func NewWorld(g *world.Grid) *World {
	w := &World{
		Grid:  g,
		Speed: 1.0,
	}
	w.RebuildIndexes()
	return w
}

// RebuildIndexes regenerates the ID lookup maps from the collections.
func (w *World) RebuildIndexes() {
	w.SettlementIndex = make(map[village.SettlementID]*village.Settlement, len(w.Settlements))
	for _, s := range w.Settlements {
		w.SettlementIndex[s.ID] = s
	}
	w.StructureIndex = make(map[uint64]*village.Structure, len(w.Structures))
	for _, st := range w.Structures {
		w.StructureIndex[st.ID] = st
	}
	w.AgentIndex = make(map[agents.AgentID]*agents.Agent, len(w.Agents))
	for _, a := range w.Agents {
		w.AgentIndex[a.ID] = a
	}
}

// RebuildRoadMarks recomputes the grid's road cache from road entities.
// Road entities are the source of truth; the grid marker is never trusted
// from persisted data. A node whose road work is still pending has not been
// laid yet, so it stays unmarked until the work completes — the rebuilt
// cache matches the live state at save time exactly.
func (w *World) RebuildRoadMarks() {
	w.Grid.ClearRoadMarks()

	unbuilt := make(map[world.TileCoord]bool)
	for _, p := range w.Pending {
		if p.Type == build.WorkRoad {
			unbuilt[p.Tile] = true
		}
	}

	for _, r := range w.Roads {
		for _, t := range r.Nodes {
			if unbuilt[t] {
				continue
			}
			w.Grid.MarkRoad(t)
		}
	}
}

// TileOccupied reports whether a tile already hosts a structure or an
// in-progress work item. Used by the placement finder.
func (w *World) TileOccupied(t world.TileCoord) bool {
	for _, st := range w.Structures {
		if st.Tile == t {
			return true
		}
	}
	for _, p := range w.Pending {
		if p.Tile == t {
			return true
		}
	}
	return false
}

// AddSettlement creates and registers a settlement at a position.
func (w *World) AddSettlement(name string, pos world.Vec) *village.Settlement {
	w.NextSettlementID++
	s := village.NewSettlement(w.NextSettlementID, name, pos)
	w.Settlements = append(w.Settlements, s)
	w.SettlementIndex[s.ID] = s
	return s
}

// AddAgent creates and registers a villager in a settlement.
func (w *World) AddAgent(settlementID village.SettlementID, pos world.Vec) *agents.Agent {
	w.NextAgentID++
	a := agents.NewAgent(agents.AgentID(w.NextAgentID), settlementID, pos)
	w.Agents = append(w.Agents, a)
	w.AgentIndex[a.ID] = a
	return a
}

// SpawnWork creates a pending work item in the world.
func (w *World) SpawnWork(settlementID village.SettlementID, tile world.TileCoord, typ build.WorkType, required float64, priority int) *build.PendingWork {
	w.NextWorkID++
	p := build.NewPendingWork(w.NextWorkID, settlementID, tile, typ, required, priority, w.Grid.TileSize)
	w.Pending = append(w.Pending, p)
	return p
}

// PlanRoad registers a road along the given tile path and spawns one road
// work item per tile. Road work outranks building work so links finish
// before the structures they serve.
func (w *World) PlanRoad(settlementID village.SettlementID, nodes []world.TileCoord) *village.Road {
	w.NextRoadID++
	r := village.NewRoad(w.NextRoadID, settlementID, nodes, w.Grid.TileSize)
	w.Roads = append(w.Roads, r)

	for _, t := range nodes {
		if w.Grid.IsRoad(t) || w.TileOccupied(t) {
			continue
		}
		w.SpawnWork(settlementID, t, build.WorkRoad, build.RoadWorkPerTile, priorityRoad)
	}
	return r
}

// completeWork finishes a work item: a structure is erected, or a road tile
// is marked on the grid.
func (w *World) completeWork(p *build.PendingWork) {
	if typ, ok := p.Type.Structure(); ok {
		w.NextStructureID++
		st := village.NewStructure(w.NextStructureID, p.SettlementID, p.Tile, typ, w.Grid.TileSize)
		w.Structures = append(w.Structures, st)
		w.StructureIndex[st.ID] = st
	} else {
		w.Grid.MarkRoad(p.Tile)
	}
	w.removePending(p.ID)
}

func (w *World) removePending(id uint64) {
	for i, p := range w.Pending {
		if p.ID == id {
			w.Pending = append(w.Pending[:i], w.Pending[i+1:]...)
			return
		}
	}
}

// SortPendingByPriority orders pending work per settlement by descending
// priority, giving the simulation a deterministic next-pick order. IDs break
// ties so the order is stable across runs.
func (w *World) SortPendingByPriority() {
	sort.SliceStable(w.Pending, func(i, j int) bool {
		a, b := w.Pending[i], w.Pending[j]
		if a.SettlementID != b.SettlementID {
			return a.SettlementID < b.SettlementID
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID < b.ID
	})
}

// Work priorities. Higher runs sooner.
const (
	priorityBuilding = 1
	priorityRoad     = 2
)
