// Terrain generation using layered simplex noise.
// Generates elevation and moisture maps, then derives tile types.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width    int     // Grid width in tiles
	Height   int     // Grid height in tiles
	TileSize int     // World units per tile
	Seed     int64   // Random seed (0 = random)
	SeaLevel float64 // Elevation threshold for water (0.0–1.0)
	RockLvl  float64 // Elevation threshold for rock (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:    128,
		Height:   96,
		TileSize: 32,
		Seed:     0,
		SeaLevel: 0.28,
		RockLvl:  0.78,
	}
}

// SmallTestConfig returns a tiny grid for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:    24,
		Height:   16,
		TileSize: 32,
		Seed:     42,
		SeaLevel: 0.30,
		RockLvl:  0.80,
	}
}

// Generate creates a complete terrain grid.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Independent noise layers for elevation and moisture.
	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	g := NewGrid(cfg.Width, cfg.Height, cfg.TileSize)

	cx := float64(cfg.Width) / 2
	cy := float64(cfg.Height) / 2

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx := float64(x)
			fy := float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.05, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.04, 0.5)

			// Island shaping: elevation falls off toward the map edge so the
			// village sits on a landmass ringed by water.
			dx := (fx - cx) / cx
			dy := (fy - cy) / cy
			dist := math.Sqrt(dx*dx + dy*dy)
			falloff := 1.0 - math.Pow(dist, 3.0)
			if falloff < 0 {
				falloff = 0
			}
			elev *= falloff

			g.Set(TileCoord{X: x, Y: y}, deriveTile(elev, moist, cfg))
		}
	}

	return g
}

// deriveTile determines the tile type from environmental parameters.
func deriveTile(elev, moist float64, cfg GenConfig) TileType {
	switch {
	case elev < cfg.SeaLevel:
		return TileWater
	case elev < cfg.SeaLevel+0.04:
		return TileSand
	case elev > cfg.RockLvl:
		return TileRock
	case moist > 0.55:
		return TileForest
	}
	return TileGrass
}

// octaveNoise samples multi-octave noise for natural-looking terrain.
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	var total, amplitude, maxValue float64
	amplitude = 1.0

	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2.0
	}

	return total / maxValue
}
