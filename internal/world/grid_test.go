package world

import "testing"

func TestTileOf(t *testing.T) {
	cases := []struct {
		pos  Vec
		size int
		want TileCoord
	}{
		{Vec{X: 0, Y: 0}, 32, TileCoord{X: 0, Y: 0}},
		{Vec{X: 31.9, Y: 31.9}, 32, TileCoord{X: 0, Y: 0}},
		{Vec{X: 32, Y: 32}, 32, TileCoord{X: 1, Y: 1}},
		{Vec{X: 131, Y: 223}, 32, TileCoord{X: 4, Y: 6}},
		{Vec{X: -1, Y: -0.5}, 32, TileCoord{X: -1, Y: -1}},
	}
	for _, c := range cases {
		if got := TileOf(c.pos, c.size); got != c.want {
			t.Errorf("TileOf(%v, %d) = %v, want %v", c.pos, c.size, got, c.want)
		}
	}
}

func TestTileWorldRoundTrip(t *testing.T) {
	tc := TileCoord{X: 4, Y: 7}
	pos := tc.World(32)
	if pos.X != 128 || pos.Y != 224 {
		t.Fatalf("World() = %v, want (128,224)", pos)
	}
	if back := TileOf(pos, 32); back != tc {
		t.Fatalf("TileOf(World()) = %v, want %v", back, tc)
	}
}

func TestGridBoundsAndAccess(t *testing.T) {
	g := NewGrid(8, 4, 32)

	if !g.InBounds(TileCoord{X: 7, Y: 3}) {
		t.Error("corner tile should be in bounds")
	}
	if g.InBounds(TileCoord{X: 8, Y: 0}) || g.InBounds(TileCoord{X: 0, Y: -1}) {
		t.Error("out-of-range tiles should be out of bounds")
	}

	g.Set(TileCoord{X: 2, Y: 1}, TileForest)
	if got := g.At(TileCoord{X: 2, Y: 1}); got != TileForest {
		t.Errorf("At = %v, want forest", got)
	}

	// Out-of-bounds reads act like water; writes are dropped.
	if got := g.At(TileCoord{X: -1, Y: 0}); got != TileWater {
		t.Errorf("out-of-bounds At = %v, want water", got)
	}
	g.Set(TileCoord{X: 100, Y: 100}, TileRock)
}

func TestRoadMarks(t *testing.T) {
	g := NewGrid(4, 4, 32)
	tc := TileCoord{X: 1, Y: 2}

	if g.IsRoad(tc) {
		t.Fatal("fresh grid should have no roads")
	}
	g.MarkRoad(tc)
	if !g.IsRoad(tc) {
		t.Fatal("MarkRoad did not stick")
	}
	g.ClearRoadMarks()
	if g.IsRoad(tc) {
		t.Fatal("ClearRoadMarks left a road mark")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)

	if len(a.Tiles) != cfg.Width*cfg.Height {
		t.Fatalf("tile count = %d, want %d", len(a.Tiles), cfg.Width*cfg.Height)
	}
	for i := range a.Tiles {
		if a.Tiles[i] != b.Tiles[i] {
			t.Fatalf("generation not deterministic at index %d", i)
		}
	}

	// The island shape guarantees water at the corners and some land inside.
	if a.At(TileCoord{X: 0, Y: 0}) != TileWater {
		t.Error("corner should be water")
	}
	land := 0
	for _, tt := range a.Tiles {
		if tt != TileWater {
			land++
		}
	}
	if land == 0 {
		t.Error("generated grid has no land")
	}
}
