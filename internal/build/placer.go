package build

import (
	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

// GridPlacer is the default placement finder: it scans outward from the
// settlement center in growing rings and returns the first buildable,
// unoccupied tile. Occupancy is supplied by the owner of the world state so
// the scan sees structures and pending work alike.
type GridPlacer struct {
	Grid      *world.Grid
	Occupied  func(world.TileCoord) bool
	MaxRadius int // Ring scan limit in tiles; 0 means a default of 16.
}

// FindPlacement implements PlacementFinder.
func (p *GridPlacer) FindPlacement(s *village.Settlement, typ village.StructureType) (world.TileCoord, bool) {
	maxR := p.MaxRadius
	if maxR <= 0 {
		maxR = 16
	}

	center := world.TileOf(s.Position, p.Grid.TileSize)

	for r := 1; r <= maxR; r++ {
		for _, t := range ring(center, r) {
			if !p.Grid.InBounds(t) || !p.Grid.Buildable(t) {
				continue
			}
			if p.Grid.IsRoad(t) {
				continue
			}
			if p.Occupied != nil && p.Occupied(t) {
				continue
			}
			return t, true
		}
	}
	return world.TileCoord{}, false
}

// ring returns the tiles at Chebyshev distance r from the center, walked
// clockwise from the top-left corner. Deterministic order keeps placement
// reproducible for a given world state.
func ring(c world.TileCoord, r int) []world.TileCoord {
	if r == 0 {
		return []world.TileCoord{c}
	}
	out := make([]world.TileCoord, 0, 8*r)
	// Top and bottom rows.
	for x := c.X - r; x <= c.X+r; x++ {
		out = append(out, world.TileCoord{X: x, Y: c.Y - r})
	}
	// Side columns, excluding corners already covered.
	for y := c.Y - r + 1; y <= c.Y+r-1; y++ {
		out = append(out, world.TileCoord{X: c.X + r, Y: y})
		out = append(out, world.TileCoord{X: c.X - r, Y: y})
	}
	for x := c.X - r; x <= c.X+r; x++ {
		out = append(out, world.TileCoord{X: x, Y: c.Y + r})
	}
	return out
}
