package village

import (
	"github.com/talgya/hearthstead/internal/world"
)

// RoadEnd is one endpoint of a road, carried in both world and tile
// coordinates. The tile coordinate is authoritative on reload.
type RoadEnd struct {
	Position world.Vec       `json:"position"`
	Tile     world.TileCoord `json:"tile"`
}

// Road is a transport link between two points within a settlement's area.
type Road struct {
	ID           uint64       `json:"id"`
	SettlementID SettlementID `json:"settlement_id"`
	From         RoadEnd      `json:"from"`
	To           RoadEnd      `json:"to"`

	// Nodes is the ordered sequence of intermediate tiles, endpoints included.
	Nodes []world.TileCoord `json:"nodes"`
}

// NewRoad creates a road spanning the given tile path.
// The path must contain at least the two endpoint tiles.
func NewRoad(id uint64, settlementID SettlementID, nodes []world.TileCoord, tileSize int) *Road {
	r := &Road{
		ID:           id,
		SettlementID: settlementID,
		Nodes:        nodes,
	}
	if len(nodes) > 0 {
		first := nodes[0]
		last := nodes[len(nodes)-1]
		r.From = RoadEnd{Position: first.World(tileSize), Tile: first}
		r.To = RoadEnd{Position: last.World(tileSize), Tile: last}
	}
	return r
}
