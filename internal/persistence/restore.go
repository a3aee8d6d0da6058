package persistence

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/talgya/hearthstead/internal/agents"
	"github.com/talgya/hearthstead/internal/build"
	"github.com/talgya/hearthstead/internal/engine"
	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

// Load reads a snapshot file and reconstructs a fresh, fully linked world.
// The returned world replaces the live one wholesale; on any error the
// caller's current world is untouched — Load never mutates shared state.
func (st *Store) Load(path string) (*engine.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	// Strip the single header line; everything after it is the document.
	body := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		body = data[i+1:]
	}

	doc, err := DecodeBody(body)
	if err != nil {
		return nil, err
	}

	w, err := st.reconstruct(doc)
	if err != nil {
		return nil, err
	}

	slog.Info("snapshot loaded", "path", path,
		"settlements", len(w.Settlements), "agents", len(w.Agents),
		"pending", len(w.Pending))
	return w, nil
}

// reconstruct populates a fresh world from the generic document. Structural
// failures in the scalar/terrain sections abort before anything else is
// built; per-entity fields fall back to constructor defaults instead of
// failing.
func (st *Store) reconstruct(doc Value) (*engine.World, error) {
	// Tile resources are an external concern; load them before terrain.
	if st.TileAssets != nil {
		if err := st.TileAssets(); err != nil {
			return nil, fmt.Errorf("load tile assets: %w", err)
		}
	}

	g, err := restoreTerrain(doc.Field("terrain"))
	if err != nil {
		return nil, err
	}

	w := engine.NewWorld(g)

	// Scalars: copied verbatim, missing fields take documented defaults.
	w.Crowns = doc.Field("crowns").Int(0)
	w.Stockpile = restoreStockpile(doc.Field("stockpile"))
	w.Speed = doc.Field("speed").Float(1.0)

	counters := doc.Field("counters")
	w.NextSettlementID = counters.Field("settlement").Uint(0)
	w.NextStructureID = counters.Field("structure").Uint(0)
	w.NextAgentID = counters.Field("agent").Uint(0)
	w.NextRoadID = counters.Field("road").Uint(0)
	w.NextWorkID = counters.Field("work").Uint(0)

	for _, v := range doc.Field("settlements").Seq() {
		w.Settlements = append(w.Settlements, restoreSettlement(v))
	}
	for _, v := range doc.Field("structures").Seq() {
		w.Structures = append(w.Structures, restoreStructure(v, g.TileSize))
	}
	for _, v := range doc.Field("pending").Seq() {
		w.Pending = append(w.Pending, restorePending(v, g.TileSize))
	}
	for _, v := range doc.Field("agents").Seq() {
		w.Agents = append(w.Agents, restoreAgent(v, g.TileSize))
	}
	for _, v := range doc.Field("roads").Seq() {
		w.Roads = append(w.Roads, restoreRoad(v, g.TileSize))
	}

	// Counters must stay ahead of every loaded ID even if the persisted
	// counter block was absent or stale.
	raiseCounters(w)

	w.RebuildIndexes()
	w.SortPendingByPriority()
	w.RebuildRoadMarks()

	return w, nil
}

func restoreTerrain(terrain Value) (*world.Grid, error) {
	if !terrain.IsMapping() {
		return nil, fmt.Errorf("%w: missing terrain section", ErrCorruptSnapshot)
	}

	width := int(terrain.Field("width").Int(0))
	height := int(terrain.Field("height").Int(0))
	tileSize := int(terrain.Field("tile_size").Int(0))
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return nil, fmt.Errorf("%w: bad terrain dimensions %dx%d tile=%d",
			ErrCorruptSnapshot, width, height, tileSize)
	}

	tiles := terrain.Field("tiles").Seq()
	if len(tiles) != width*height {
		return nil, fmt.Errorf("%w: terrain has %d tiles, want %d",
			ErrCorruptSnapshot, len(tiles), width*height)
	}

	g := world.NewGrid(width, height, tileSize)
	for i, tv := range tiles {
		g.Tiles[i] = world.TileType(tv.Int(int64(world.TileGrass)))
	}
	return g, nil
}

func restoreStockpile(v Value) village.Stockpile {
	return village.Stockpile{
		Wood:  int(v.Field("wood").Int(0)),
		Stone: int(v.Field("stone").Int(0)),
		Food:  int(v.Field("food").Int(0)),
	}
}

// Every entity goes through its standard constructor first so defaults and
// derived fields initialize correctly, then persisted fields overwrite.

func restoreSettlement(v Value) *village.Settlement {
	s := village.NewSettlement(
		v.Field("id").Uint(0),
		v.Field("name").Str("unnamed"),
		restoreVec(v.Field("position"), world.Vec{}),
	)
	s.Population = uint32(v.Field("population").Uint(0))
	s.Homeless = uint32(v.Field("homeless").Uint(0))
	s.Stockpile = restoreStockpile(v.Field("stockpile"))
	s.Tier = uint8(v.Field("tier").Uint(0))
	return s
}

func restoreStructure(v Value, tileSize int) *village.Structure {
	// The tile coordinate is authoritative: the constructor snaps the world
	// position to tile*tileSize, discarding any drift the persisted position
	// accumulated.
	t := restoreTile(v.Field("tile"))
	b := village.NewStructure(
		v.Field("id").Uint(0),
		v.Field("settlement_id").Uint(0),
		t,
		village.StructureType(v.Field("type").Str(string(village.StructureHouse))),
		tileSize,
	)
	b.Health = v.Field("health").Float(b.MaxHealth)
	b.MaxHealth = v.Field("max_health").Float(b.MaxHealth)
	b.Workers = uint16(v.Field("workers").Uint(0))
	b.Residents = uint16(v.Field("residents").Uint(0))
	b.ProduceTimer = v.Field("produce_timer").Float(0)
	return b
}

func restorePending(v Value, tileSize int) *build.PendingWork {
	t := restoreTile(v.Field("tile"))
	typ := build.WorkType(v.Field("type").Str(string(build.WorkRoad)))
	p := build.NewPendingWork(
		v.Field("id").Uint(0),
		v.Field("settlement_id").Uint(0),
		t,
		typ,
		v.Field("required").Float(build.RoadWorkPerTile),
		int(v.Field("priority").Int(0)),
		tileSize,
	)
	p.Progress = v.Field("progress").Float(0)
	return p
}

func restoreAgent(v Value, tileSize int) *agents.Agent {
	// Position re-snaps to the persisted tile for pixel-exact alignment.
	t := restoreTile(v.Field("tile"))
	pos := t.World(tileSize)

	a := agents.NewAgent(
		agents.AgentID(v.Field("id").Uint(0)),
		v.Field("settlement_id").Uint(0),
		pos,
	)

	// A missing target defaults to the villager's own position (the
	// constructor already set that), preventing null-target motion.
	if tv := v.Field("target"); tv.IsMapping() {
		a.Target = restoreVec(tv, pos)
	}

	state := agents.StateFromName(v.Field("state").Str("idle"))
	// Mid-construction linkage is not trustworthy across a reload: the
	// build queue that spawned it was never persisted. Resume idle and let
	// the simulation re-assign work.
	if state == agents.StateBuilding {
		state = agents.StateIdle
	}
	a.State = state

	if id, ok := v.Field("structure_id").OptUint(); ok {
		a.StructureID = &id
	}
	a.Carry = agents.Carry{
		Resource: v.Field("carry_resource").Str(""),
		Amount:   int(v.Field("carry_amount").Int(0)),
	}

	// Path plans are never persisted; recomputed lazily on the next tick.
	a.ClearTransient()
	return a
}

func restoreRoad(v Value, tileSize int) *village.Road {
	nodeVals := v.Field("nodes").Seq()
	nodes := make([]world.TileCoord, len(nodeVals))
	for i, nv := range nodeVals {
		nodes[i] = restoreTile(nv)
	}
	// NewRoad re-derives both endpoints from the tile path, the same
	// re-snap rule structures and agents follow.
	return village.NewRoad(
		v.Field("id").Uint(0),
		v.Field("settlement_id").Uint(0),
		nodes,
		tileSize,
	)
}

func restoreVec(v Value, def world.Vec) world.Vec {
	return world.Vec{
		X: v.Field("x").Float(def.X),
		Y: v.Field("y").Float(def.Y),
	}
}

func restoreTile(v Value) world.TileCoord {
	return world.TileCoord{
		X: int(v.Field("x").Int(0)),
		Y: int(v.Field("y").Int(0)),
	}
}

func raiseCounters(w *engine.World) {
	for _, s := range w.Settlements {
		if s.ID > w.NextSettlementID {
			w.NextSettlementID = s.ID
		}
	}
	for _, b := range w.Structures {
		if b.ID > w.NextStructureID {
			w.NextStructureID = b.ID
		}
	}
	for _, a := range w.Agents {
		if uint64(a.ID) > w.NextAgentID {
			w.NextAgentID = uint64(a.ID)
		}
	}
	for _, r := range w.Roads {
		if r.ID > w.NextRoadID {
			w.NextRoadID = r.ID
		}
	}
	for _, p := range w.Pending {
		if p.ID > w.NextWorkID {
			w.NextWorkID = p.ID
		}
	}
}
