package village

import (
	"github.com/talgya/hearthstead/internal/world"
)

// StructureType tags the kind of building a structure is.
type StructureType string

const (
	StructureHouse      StructureType = "house"
	StructureFarm       StructureType = "farm"
	StructureLumberHut  StructureType = "lumber_hut"
	StructureQuarry     StructureType = "quarry"
	StructureWell       StructureType = "well"
	StructureStorehouse StructureType = "storehouse"
)

// Structure is a placed building.
//
// SettlementID is a weak reference: the settlement may no longer exist, and
// such orphaned structures still stand and produce but cannot be upgraded.
type Structure struct {
	ID           uint64          `json:"id"`
	SettlementID SettlementID    `json:"settlement_id"`
	Position     world.Vec       `json:"position"`
	Tile         world.TileCoord `json:"tile"` // Authoritative on reload
	Type         StructureType   `json:"type"`

	Health    float64 `json:"health"`
	MaxHealth float64 `json:"max_health"`

	// Occupancy
	Workers   uint16 `json:"workers"`
	Residents uint16 `json:"residents"`

	// ProduceTimer counts elapsed work toward the next production cycle.
	ProduceTimer float64 `json:"produce_timer"`
}

// NewStructure creates a structure of the given type snapped to a tile.
// Default health comes from the type's base durability.
func NewStructure(id uint64, settlementID SettlementID, t world.TileCoord, typ StructureType, tileSize int) *Structure {
	max := baseHealth(typ)
	return &Structure{
		ID:           id,
		SettlementID: settlementID,
		Position:     t.World(tileSize),
		Tile:         t,
		Type:         typ,
		Health:       max,
		MaxHealth:    max,
	}
}

// Orphaned reports whether the structure's settlement is missing from the
// given index. Orphans keep working but may not be upgraded.
func (s *Structure) Orphaned(settlements map[SettlementID]*Settlement) bool {
	_, ok := settlements[s.SettlementID]
	return !ok
}

func baseHealth(t StructureType) float64 {
	switch t {
	case StructureHouse:
		return 100
	case StructureFarm:
		return 60
	case StructureLumberHut:
		return 80
	case StructureQuarry:
		return 120
	case StructureWell:
		return 50
	case StructureStorehouse:
		return 150
	}
	return 100
}

// BuildWork returns the total work required to construct the type.
func BuildWork(t StructureType) float64 {
	switch t {
	case StructureHouse:
		return 30
	case StructureFarm:
		return 20
	case StructureLumberHut:
		return 25
	case StructureQuarry:
		return 45
	case StructureWell:
		return 15
	case StructureStorehouse:
		return 60
	}
	return 30
}
