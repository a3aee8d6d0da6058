package world

// TileType enumerates base terrain for a grid cell.
type TileType uint8

const (
	TileWater  TileType = iota // Impassable, no construction
	TileSand                   // Shoreline
	TileGrass                  // Default buildable land
	TileForest                 // Buildable after clearing, timber source
	TileRock                   // Impassable, stone source at edges
)

// TileName returns a human-readable terrain name.
func TileName(t TileType) string {
	switch t {
	case TileWater:
		return "water"
	case TileSand:
		return "sand"
	case TileGrass:
		return "grass"
	case TileForest:
		return "forest"
	case TileRock:
		return "rock"
	}
	return "unknown"
}
