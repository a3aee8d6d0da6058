// Package world provides the terrain grid, tile coordinates, and spatial math.
// World positions are continuous (world units); tiles are the discrete grid
// cells beneath them, related by position = tile * tileSize.
package world

import (
	"fmt"
	"math"
)

// Vec is a position in continuous world units.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TileCoord is a discrete cell on the terrain grid.
type TileCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TileOf returns the tile containing the given world position.
func TileOf(v Vec, tileSize int) TileCoord {
	return TileCoord{
		X: int(math.Floor(v.X / float64(tileSize))),
		Y: int(math.Floor(v.Y / float64(tileSize))),
	}
}

// World returns the world position of the tile's top-left corner.
// This is the authoritative position for any tile-snapped entity.
func (t TileCoord) World(tileSize int) Vec {
	return Vec{X: float64(t.X * tileSize), Y: float64(t.Y * tileSize)}
}

// Grid holds the terrain tile grid.
type Grid struct {
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	TileSize int        `json:"tile_size"`
	Tiles    []TileType `json:"tiles"` // Row-major, len == Width*Height.

	// Road markers are a derived cache over the base terrain, rebuilt from
	// road entities after every load. Never persisted.
	roads []bool
}

// NewGrid creates an all-grass grid of the given dimensions.
func NewGrid(width, height, tileSize int) *Grid {
	g := &Grid{
		Width:    width,
		Height:   height,
		TileSize: tileSize,
		Tiles:    make([]TileType, width*height),
		roads:    make([]bool, width*height),
	}
	for i := range g.Tiles {
		g.Tiles[i] = TileGrass
	}
	return g
}

// InBounds reports whether the tile lies on the grid.
func (g *Grid) InBounds(t TileCoord) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < g.Width && t.Y < g.Height
}

// At returns the terrain type at the tile, or TileWater when out of bounds.
func (g *Grid) At(t TileCoord) TileType {
	if !g.InBounds(t) {
		return TileWater
	}
	return g.Tiles[t.Y*g.Width+t.X]
}

// Set writes the terrain type at the tile. Out-of-bounds writes are dropped.
func (g *Grid) Set(t TileCoord, tt TileType) {
	if !g.InBounds(t) {
		return
	}
	g.Tiles[t.Y*g.Width+t.X] = tt
}

// MarkRoad flags a tile as carrying a road.
func (g *Grid) MarkRoad(t TileCoord) {
	if !g.InBounds(t) {
		return
	}
	g.roads[t.Y*g.Width+t.X] = true
}

// IsRoad reports whether a tile carries a road.
func (g *Grid) IsRoad(t TileCoord) bool {
	if !g.InBounds(t) {
		return false
	}
	return g.roads[t.Y*g.Width+t.X]
}

// ClearRoadMarks resets the road cache. Called before rebuilding it from
// road entities, which are the source of truth.
func (g *Grid) ClearRoadMarks() {
	if len(g.roads) != len(g.Tiles) {
		g.roads = make([]bool, len(g.Tiles))
		return
	}
	for i := range g.roads {
		g.roads[i] = false
	}
}

// Buildable reports whether a tile can host a structure or road.
func (g *Grid) Buildable(t TileCoord) bool {
	switch g.At(t) {
	case TileGrass, TileSand, TileForest:
		return true
	}
	return false
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, tile=%d)", g.Width, g.Height, g.TileSize)
}
