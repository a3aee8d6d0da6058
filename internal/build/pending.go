package build

import (
	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

// WorkType tags what a pending work item constructs: a structure type, or
// WorkRoad for one road tile.
type WorkType string

// WorkRoad marks a road-segment work item.
const WorkRoad WorkType = "road"

// StructureWork converts a structure type into its work tag.
func StructureWork(t village.StructureType) WorkType {
	return WorkType(t)
}

// Structure returns the structure type a work item builds, or false for
// road work.
func (w WorkType) Structure() (village.StructureType, bool) {
	if w == WorkRoad {
		return "", false
	}
	return village.StructureType(w), true
}

// Road work takes this much effort per tile.
const RoadWorkPerTile = 5.0

// PendingWork is an unfinished construction task living in the world.
// It is spawned from queued intent (buildings) or road planning (road
// tiles) and removed when progress reaches the required total.
type PendingWork struct {
	ID           uint64               `json:"id"`
	SettlementID village.SettlementID `json:"settlement_id"`
	Position     world.Vec            `json:"position"`
	Tile         world.TileCoord      `json:"tile"`
	Type         WorkType             `json:"type"`

	Progress float64 `json:"progress"` // Elapsed work
	Required float64 `json:"required"` // Total work to complete

	// Priority orders the simulation's next-pick after a load;
	// higher runs sooner.
	Priority int `json:"priority"`
}

// NewPendingWork creates a work item snapped to a tile.
func NewPendingWork(id uint64, settlementID village.SettlementID, tile world.TileCoord, typ WorkType, required float64, priority, tileSize int) *PendingWork {
	return &PendingWork{
		ID:           id,
		SettlementID: settlementID,
		Position:     tile.World(tileSize),
		Tile:         tile,
		Type:         typ,
		Required:     required,
		Priority:     priority,
	}
}

// Advance adds work and reports whether the item is complete.
func (p *PendingWork) Advance(amount float64) bool {
	p.Progress += amount
	return p.Progress >= p.Required
}
