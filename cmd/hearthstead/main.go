// Command hearthstead runs the Hearthstead village simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/hearthstead/internal/api"
	"github.com/talgya/hearthstead/internal/engine"
	"github.com/talgya/hearthstead/internal/entropy"
	"github.com/talgya/hearthstead/internal/persistence"
	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

func main() {
	var (
		port        = flag.Int("port", 8080, "HTTP API port")
		dataDir     = flag.String("data", "data", "directory for snapshots and the event journal")
		seed        = flag.Int64("seed", 0, "world generation seed (0 = random)")
		settlements = flag.Int("settlements", 3, "settlements to found in a fresh world")
		loadPath    = flag.String("load", "", "snapshot file to load (default: most recent)")
		fresh       = flag.Bool("fresh", false, "ignore existing snapshots and generate a new world")
		autosave    = flag.Duration("autosave", 5*time.Minute, "autosave interval (0 disables)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Hearthstead — village simulation")

	// ── Data directory, journal, snapshot store ───────────────────────
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		slog.Error("failed to create data directory", "dir", *dataDir, "error", err)
		os.Exit(1)
	}

	journal, err := persistence.OpenJournal(filepath.Join(*dataDir, "journal.db"))
	if err != nil {
		slog.Error("failed to open event journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	store := &persistence.Store{Dir: *dataDir}

	// ── Load or generate the world ────────────────────────────────────
	var wo *engine.World
	var startTick uint64

	snapshot := *loadPath
	if snapshot == "" && !*fresh {
		entries, err := store.List()
		if err != nil {
			slog.Error("failed to list snapshots", "error", err)
			os.Exit(1)
		}
		if len(entries) > 0 {
			snapshot = entries[0].Path
		}
	}

	if snapshot != "" {
		wo, err = store.Load(snapshot)
		if err != nil {
			slog.Error("failed to load snapshot", "path", snapshot, "error", err)
			os.Exit(1)
		}
		if tickStr, err := journal.GetMeta("last_tick"); err == nil {
			if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
				startTick = t
			}
		}
		slog.Info("world restored",
			"path", snapshot,
			"settlements", len(wo.Settlements),
			"agents", len(wo.Agents),
			"tick", startTick,
		)
	} else {
		s := *seed
		if s == 0 {
			s = entropy.NewClient(os.Getenv("RANDOM_ORG_KEY")).Seed()
		}
		slog.Info("generating new world", "seed", s)
		wo = freshWorld(s, *settlements)
	}

	// ── Engine and HTTP shell ─────────────────────────────────────────
	eng := engine.NewEngine(wo)
	eng.Tick = startTick

	adminKey := os.Getenv("HEARTHSTEAD_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("HEARTHSTEAD_ADMIN_KEY not set — control POST endpoints will be disabled")
	}

	srv := &api.Server{
		Eng:      eng,
		Store:    store,
		Journal:  journal,
		Port:     *port,
		AdminKey: adminKey,
	}
	srv.Start()

	// ── Autosave and journal flushing ─────────────────────────────────
	stopAuto := make(chan struct{})
	if *autosave > 0 {
		go func() {
			ticker := time.NewTicker(*autosave)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					saveWorld(eng, store, journal)
				case <-stopAuto:
					return
				}
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("Hearthstead is alive: %d villagers across %d settlements.\n",
		len(wo.Agents), len(wo.Settlements))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", *port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	close(stopAuto)
	slog.Info("final save...")
	saveWorld(eng, store, journal)
	fmt.Println("Simulation stopped. World saved.")
}

// saveWorld snapshots the world and flushes accumulated events, holding the
// tick loop off for the duration.
func saveWorld(eng *engine.Engine, store *persistence.Store, journal *persistence.Journal) {
	eng.Suspend(func() {
		if _, err := store.Save(eng.World, ""); err != nil {
			slog.Error("save failed", "error", err)
			return
		}
		if err := journal.SetMeta("last_tick", strconv.FormatUint(eng.Tick, 10)); err != nil {
			slog.Warn("failed to record tick", "error", err)
		}
		journal.Flush(eng.World)
	})
}

// freshWorld generates terrain and founds the starting settlements, each
// with a handful of villagers.
func freshWorld(seed int64, count int) *engine.World {
	cfg := world.DefaultGenConfig()
	cfg.Seed = seed

	wo := engine.NewWorld(world.Generate(cfg))
	rng := rand.New(rand.NewSource(seed))

	sites := settlementSites(wo.Grid, rng, count)
	names := village.GenerateNames(rng, len(sites))
	for i, tile := range sites {
		center := tile.World(wo.Grid.TileSize)
		center.X += float64(wo.Grid.TileSize) / 2
		center.Y += float64(wo.Grid.TileSize) / 2

		s := wo.AddSettlement(names[i], center)
		pop := 4 + rng.Intn(4)
		for j := 0; j < pop; j++ {
			wo.AddAgent(s.ID, center)
		}
		s.Population = uint32(pop)
		slog.Info("settlement founded", "name", s.Name, "tile", tile, "villagers", pop)
	}
	return wo
}

// settlementSites picks buildable tiles spread across the map, keeping a
// minimum distance between settlements.
func settlementSites(g *world.Grid, rng *rand.Rand, count int) []world.TileCoord {
	const minSeparation = 12

	var candidates []world.TileCoord
	for y := 2; y < g.Height-2; y++ {
		for x := 2; x < g.Width-2; x++ {
			t := world.TileCoord{X: x, Y: y}
			if g.Buildable(t) {
				candidates = append(candidates, t)
			}
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	var sites []world.TileCoord
	for _, c := range candidates {
		if len(sites) == count {
			break
		}
		ok := true
		for _, s := range sites {
			dx, dy := c.X-s.X, c.Y-s.Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			if dx < minSeparation && dy < minSeparation {
				ok = false
				break
			}
		}
		if ok {
			sites = append(sites, c)
		}
	}
	return sites
}
