package agents

import (
	"testing"

	"github.com/talgya/hearthstead/internal/world"
)

func TestStepArrives(t *testing.T) {
	a := NewAgent(1, 1, world.Vec{X: 0, Y: 0})
	a.Target = world.Vec{X: 10, Y: 0}

	steps := 0
	for !Step(a) {
		steps++
		if steps > 10 {
			t.Fatalf("never arrived; position %+v", a.Position)
		}
	}
	if a.Position != a.Target {
		t.Errorf("position = %+v, want %+v", a.Position, a.Target)
	}
	// 10 units at 4/tick: two full steps, a partial, then the arrival check.
	if steps < 2 || steps > 4 {
		t.Errorf("steps = %d, want 2..4", steps)
	}
}

func TestStepNeverOvershoots(t *testing.T) {
	a := NewAgent(1, 1, world.Vec{X: 0, Y: 0})
	a.Target = world.Vec{X: 1, Y: 1}

	Step(a)
	if a.Position.X > a.Target.X || a.Position.Y > a.Target.Y {
		t.Errorf("overshot target: %+v", a.Position)
	}
}

func TestSendToClearsPath(t *testing.T) {
	a := NewAgent(1, 1, world.Vec{X: 0, Y: 0})
	a.Path = []world.TileCoord{{X: 1, Y: 1}, {X: 2, Y: 1}}
	a.State = StateIdle

	SendTo(a, world.TileCoord{X: 3, Y: 2}, 32)

	if a.State != StateMoving {
		t.Errorf("state = %v, want StateMoving", a.State)
	}
	if a.Path != nil {
		t.Errorf("path not cleared: %v", a.Path)
	}
	want := world.Vec{X: 96, Y: 64}
	if a.Target != want {
		t.Errorf("target = %+v, want %+v", a.Target, want)
	}
}

func TestStateNameRoundTrip(t *testing.T) {
	for _, st := range []BehaviorState{StateIdle, StateMoving, StateWorking, StateBuilding, StateHauling} {
		if got := StateFromName(StateName(st)); got != st {
			t.Errorf("StateFromName(StateName(%d)) = %d", st, got)
		}
	}
	if got := StateFromName("sleepwalking"); got != StateIdle {
		t.Errorf("unknown state name = %d, want StateIdle", got)
	}
}
