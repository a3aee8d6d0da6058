package engine

import (
	"testing"

	"github.com/talgya/hearthstead/internal/agents"
	"github.com/talgya/hearthstead/internal/build"
	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

func flatWorld() *World {
	return NewWorld(world.NewGrid(16, 16, 32))
}

func TestTileOccupied(t *testing.T) {
	w := flatWorld()
	s := w.AddSettlement("Oakwell", world.Vec{X: 256, Y: 256})

	if w.TileOccupied(world.TileCoord{X: 3, Y: 3}) {
		t.Fatal("empty world should have no occupied tiles")
	}

	w.SpawnWork(s.ID, world.TileCoord{X: 3, Y: 3}, build.StructureWork(village.StructureHouse), 30, 1)
	if !w.TileOccupied(world.TileCoord{X: 3, Y: 3}) {
		t.Fatal("pending work should occupy its tile")
	}
}

func TestQueueIntentBecomesWork(t *testing.T) {
	w := flatWorld()
	s := w.AddSettlement("Oakwell", world.TileCoord{X: 8, Y: 8}.World(32))
	w.AddAgent(s.ID, s.Position)

	e := NewEngine(w)

	tile, err := e.Queue.Enqueue(s, village.StructureHouse)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if e.Queue.Count(s.ID, village.StructureHouse) != 1 {
		t.Fatal("count should be 1 after enqueue")
	}

	// One tick: the idle villager claims the order, spawning a work entity
	// and draining the queue.
	e.step()

	if e.Queue.Count(s.ID, village.StructureHouse) != 0 {
		t.Error("queue count should drain when work spawns")
	}
	if len(w.Pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(w.Pending))
	}
	if w.Pending[0].Tile != tile {
		t.Errorf("work tile = %v, want the enqueued placement %v", w.Pending[0].Tile, tile)
	}
	if w.Agents[0].State != agents.StateMoving {
		t.Errorf("villager state = %v, want moving", agents.StateName(w.Agents[0].State))
	}
}

func TestConsecutiveEnqueuesGetDistinctTiles(t *testing.T) {
	w := flatWorld()
	s := w.AddSettlement("Oakwell", world.TileCoord{X: 8, Y: 8}.World(32))

	e := NewEngine(w)

	// Two orders back to back, before any tick spawns work. The second must
	// see the first's reservation and land elsewhere.
	first, err := e.Queue.Enqueue(s, village.StructureHouse)
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	second, err := e.Queue.Enqueue(s, village.StructureHouse)
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if first == second {
		t.Fatalf("both orders placed on the same tile %v", first)
	}
	if e.Queue.Count(s.ID, village.StructureHouse) != 2 {
		t.Fatal("both orders should be queued")
	}
}

func TestConstructionCompletes(t *testing.T) {
	w := flatWorld()
	s := w.AddSettlement("Oakwell", world.TileCoord{X: 8, Y: 8}.World(32))
	a := w.AddAgent(s.ID, world.TileCoord{X: 5, Y: 5}.World(32))

	e := NewEngine(w)

	// Work right under the villager, requiring two ticks of effort.
	w.SpawnWork(s.ID, world.TileCoord{X: 5, Y: 5}, build.StructureWork(village.StructureWell), 2, 1)
	a.State = agents.StateBuilding

	e.step()
	if len(w.Structures) != 0 {
		t.Fatal("structure completed too early")
	}
	e.step()

	if len(w.Pending) != 0 {
		t.Fatal("completed work should be removed")
	}
	if len(w.Structures) != 1 {
		t.Fatalf("structures = %d, want 1", len(w.Structures))
	}
	st := w.Structures[0]
	if st.Type != village.StructureWell || st.Tile != (world.TileCoord{X: 5, Y: 5}) {
		t.Errorf("structure = %+v", st)
	}
	if st.Health != st.MaxHealth {
		t.Error("fresh structure should have full health")
	}
	if a.State != agents.StateIdle {
		t.Error("builder should stand down after completion")
	}
	if len(w.Events) == 0 {
		t.Error("completion should record an event")
	}
}

func TestRoadWorkMarksGrid(t *testing.T) {
	w := flatWorld()
	s := w.AddSettlement("Oakwell", world.TileCoord{X: 8, Y: 8}.World(32))
	a := w.AddAgent(s.ID, world.TileCoord{X: 2, Y: 2}.World(32))

	e := NewEngine(w)
	w.PlanRoad(s.ID, []world.TileCoord{{X: 2, Y: 2}})
	a.State = agents.StateBuilding

	for i := 0; i < 10 && len(w.Pending) > 0; i++ {
		e.step()
	}

	if !w.Grid.IsRoad(world.TileCoord{X: 2, Y: 2}) {
		t.Error("completed road work should mark the grid")
	}
	if len(w.Structures) != 0 {
		t.Error("road work must not create a structure")
	}
}

func TestSortPendingByPriority(t *testing.T) {
	w := flatWorld()
	s := w.AddSettlement("Oakwell", world.Vec{})

	low := w.SpawnWork(s.ID, world.TileCoord{X: 1, Y: 1}, build.StructureWork(village.StructureHouse), 30, 1)
	high := w.SpawnWork(s.ID, world.TileCoord{X: 2, Y: 1}, build.WorkRoad, 5, 2)

	w.SortPendingByPriority()
	if w.Pending[0] != high || w.Pending[1] != low {
		t.Error("pending not ordered by descending priority")
	}
}

func TestSuspendBlocksTicks(t *testing.T) {
	w := flatWorld()
	e := NewEngine(w)

	ran := false
	e.Suspend(func() {
		// While suspended we can swap the world wholesale.
		e.World = flatWorld()
		ran = true
	})
	if !ran {
		t.Fatal("suspend callback did not run")
	}
}
