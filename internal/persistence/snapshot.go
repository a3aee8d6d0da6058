package persistence

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/hearthstead/internal/agents"
	"github.com/talgya/hearthstead/internal/engine"
	"github.com/talgya/hearthstead/internal/world"
)

// Snapshot file layout: one header line, then a YAML document.
const (
	headerMarker  = "HEARTHSTEAD-SNAPSHOT"
	snapshotExt   = ".save"
	defaultPrefix = "village"
)

// Store reads and writes snapshots in a single flat directory.
type Store struct {
	Dir    string
	Prefix string // Default filename prefix; empty means "village".

	// TileAssets is invoked before terrain reconstruction so the shell can
	// load tile images/metadata. Nil skips the step.
	TileAssets func() error
}

// snapshot document, version 1. Field set mirrors the persisted fields of
// each entity kind; transient state (path plans, queue intent) is excluded.
type docV1 struct {
	Version   int          `yaml:"version"`
	Crowns    int64        `yaml:"crowns"`
	Stockpile docStockpile `yaml:"stockpile"`
	Speed     float64      `yaml:"speed"`

	Terrain docTerrain `yaml:"terrain"`

	Settlements []docSettlement `yaml:"settlements"`
	Structures  []docStructure  `yaml:"structures"`
	Pending     []docPending    `yaml:"pending"`
	Agents      []docAgent      `yaml:"agents"`
	Roads       []docRoad       `yaml:"roads"`

	Counters docCounters `yaml:"counters"`
}

type docStockpile struct {
	Wood  int `yaml:"wood"`
	Stone int `yaml:"stone"`
	Food  int `yaml:"food"`
}

type docTerrain struct {
	Width    int   `yaml:"width"`
	Height   int   `yaml:"height"`
	TileSize int   `yaml:"tile_size"`
	Tiles    []int `yaml:"tiles,flow"`
}

type docVec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type docTile struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type docSettlement struct {
	ID         uint64       `yaml:"id"`
	Name       string       `yaml:"name"`
	Position   docVec       `yaml:"position"`
	Population uint32       `yaml:"population"`
	Homeless   uint32       `yaml:"homeless"`
	Stockpile  docStockpile `yaml:"stockpile"`
	Tier       uint8        `yaml:"tier"`
}

type docStructure struct {
	ID           uint64  `yaml:"id"`
	SettlementID uint64  `yaml:"settlement_id"`
	Position     docVec  `yaml:"position"`
	Tile         docTile `yaml:"tile"`
	Type         string  `yaml:"type"`
	Health       float64 `yaml:"health"`
	MaxHealth    float64 `yaml:"max_health"`
	Workers      uint16  `yaml:"workers"`
	Residents    uint16  `yaml:"residents"`
	ProduceTimer float64 `yaml:"produce_timer"`
}

type docPending struct {
	ID           uint64  `yaml:"id"`
	SettlementID uint64  `yaml:"settlement_id"`
	Position     docVec  `yaml:"position"`
	Tile         docTile `yaml:"tile"`
	Type         string  `yaml:"type"`
	Progress     float64 `yaml:"progress"`
	Required     float64 `yaml:"required"`
	Priority     int     `yaml:"priority"`
}

type docAgent struct {
	ID           uint64  `yaml:"id"`
	SettlementID uint64  `yaml:"settlement_id"`
	Position     docVec  `yaml:"position"`
	Tile         docTile `yaml:"tile"`
	Target       docVec  `yaml:"target"`
	State        string  `yaml:"state"`
	StructureID  *uint64 `yaml:"structure_id,omitempty"`
	CarryRes     string  `yaml:"carry_resource,omitempty"`
	CarryAmount  int     `yaml:"carry_amount,omitempty"`
}

type docRoadEnd struct {
	Position docVec  `yaml:"position"`
	Tile     docTile `yaml:"tile"`
}

type docRoad struct {
	ID           uint64     `yaml:"id"`
	SettlementID uint64     `yaml:"settlement_id"`
	From         docRoadEnd `yaml:"from"`
	To           docRoadEnd `yaml:"to"`
	Nodes        []docTile  `yaml:"nodes"`
}

type docCounters struct {
	Settlement uint64 `yaml:"settlement"`
	Structure  uint64 `yaml:"structure"`
	Agent      uint64 `yaml:"agent"`
	Road       uint64 `yaml:"road"`
	Work       uint64 `yaml:"work"`
}

// Save captures the world into a snapshot file and returns its path.
// name is optional; empty picks "<prefix>_<timestamp>.save". Encoding
// failures return ErrSerialization without touching storage; write failures
// leave any previous snapshot with the same name intact (the write goes to
// a temp file renamed into place only when complete).
func (st *Store) Save(w *engine.World, name string) (string, error) {
	doc := buildDoc(w)

	body, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	now := time.Now().UTC()
	header := fmt.Sprintf("%s %s settlements=%d\n",
		headerMarker, now.Format(time.RFC3339), len(w.Settlements))

	if err := os.MkdirAll(st.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if name == "" {
		name = fmt.Sprintf("%s_%s%s", st.prefix(), now.Format("20060102T150405"), snapshotExt)
	} else if !strings.HasSuffix(name, snapshotExt) {
		name += snapshotExt
	}
	path := filepath.Join(st.Dir, name)

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.Write(body)

	// Whole new file, never an in-place edit: the catalog only ever lists
	// completed writes.
	tmp, err := os.CreateTemp(st.Dir, name+".tmp*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	slog.Info("snapshot saved", "path", path,
		"settlements", len(w.Settlements), "agents", len(w.Agents))
	return path, nil
}

func (st *Store) prefix() string {
	if st.Prefix == "" {
		return defaultPrefix
	}
	return st.Prefix
}

// buildDoc converts the live world into the serializable document.
func buildDoc(w *engine.World) docV1 {
	g := w.Grid
	doc := docV1{
		Version: 1,
		Crowns:  w.Crowns,
		Stockpile: docStockpile{
			Wood: w.Stockpile.Wood, Stone: w.Stockpile.Stone, Food: w.Stockpile.Food,
		},
		Speed: w.Speed,
		Terrain: docTerrain{
			Width:    g.Width,
			Height:   g.Height,
			TileSize: g.TileSize,
			Tiles:    make([]int, len(g.Tiles)),
		},
		Counters: docCounters{
			Settlement: w.NextSettlementID,
			Structure:  w.NextStructureID,
			Agent:      w.NextAgentID,
			Road:       w.NextRoadID,
			Work:       w.NextWorkID,
		},
	}
	for i, t := range g.Tiles {
		doc.Terrain.Tiles[i] = int(t)
	}

	for _, s := range w.Settlements {
		doc.Settlements = append(doc.Settlements, docSettlement{
			ID:         s.ID,
			Name:       s.Name,
			Position:   vec(s.Position),
			Population: s.Population,
			Homeless:   s.Homeless,
			Stockpile:  docStockpile{Wood: s.Stockpile.Wood, Stone: s.Stockpile.Stone, Food: s.Stockpile.Food},
			Tier:       s.Tier,
		})
	}

	for _, b := range w.Structures {
		doc.Structures = append(doc.Structures, docStructure{
			ID:           b.ID,
			SettlementID: b.SettlementID,
			Position:     vec(b.Position),
			Tile:         tile(b.Tile),
			Type:         string(b.Type),
			Health:       b.Health,
			MaxHealth:    b.MaxHealth,
			Workers:      b.Workers,
			Residents:    b.Residents,
			ProduceTimer: b.ProduceTimer,
		})
	}

	for _, p := range w.Pending {
		doc.Pending = append(doc.Pending, docPending{
			ID:           p.ID,
			SettlementID: p.SettlementID,
			Position:     vec(p.Position),
			Tile:         tile(p.Tile),
			Type:         string(p.Type),
			Progress:     p.Progress,
			Required:     p.Required,
			Priority:     p.Priority,
		})
	}

	for _, a := range w.Agents {
		// The tile is derived at save time and authoritative on reload.
		doc.Agents = append(doc.Agents, docAgent{
			ID:           uint64(a.ID),
			SettlementID: a.SettlementID,
			Position:     vec(a.Position),
			Tile:         tile(world.TileOf(a.Position, g.TileSize)),
			Target:       vec(a.Target),
			State:        agents.StateName(a.State),
			StructureID:  a.StructureID,
			CarryRes:     a.Carry.Resource,
			CarryAmount:  a.Carry.Amount,
		})
	}

	for _, r := range w.Roads {
		nodes := make([]docTile, len(r.Nodes))
		for i, n := range r.Nodes {
			nodes[i] = tile(n)
		}
		doc.Roads = append(doc.Roads, docRoad{
			ID:           r.ID,
			SettlementID: r.SettlementID,
			From:         docRoadEnd{Position: vec(r.From.Position), Tile: tile(r.From.Tile)},
			To:           docRoadEnd{Position: vec(r.To.Position), Tile: tile(r.To.Tile)},
			Nodes:        nodes,
		})
	}

	return doc
}

func vec(v world.Vec) docVec { return docVec{X: v.X, Y: v.Y} }
func tile(t world.TileCoord) docTile { return docTile{X: t.X, Y: t.Y} }
