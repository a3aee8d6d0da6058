// Package agents provides the villager data model and behavior states.
package agents

import (
	"github.com/talgya/hearthstead/internal/world"
)

// AgentID is a unique identifier for a villager.
type AgentID uint64

// BehaviorState enumerates what a villager is currently doing.
type BehaviorState uint8

const (
	StateIdle     BehaviorState = iota // Nothing assigned
	StateMoving                        // Walking toward Target
	StateWorking                       // Producing at an assigned structure
	StateBuilding                      // Advancing a construction site
	StateHauling                       // Carrying resources between points
)

// StateName returns a human-readable behavior state name.
func StateName(s BehaviorState) string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateWorking:
		return "working"
	case StateBuilding:
		return "building"
	case StateHauling:
		return "hauling"
	}
	return "unknown"
}

// StateFromName maps a state name back to the enum. Unknown names map to
// idle, which is always a safe state to resume in.
func StateFromName(name string) BehaviorState {
	switch name {
	case "moving":
		return StateMoving
	case "working":
		return StateWorking
	case "building":
		return StateBuilding
	case "hauling":
		return StateHauling
	}
	return StateIdle
}

// Carry is the resource payload a villager is transporting.
type Carry struct {
	Resource string `json:"resource,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

// Agent is a villager: the mobile worker unit of a settlement.
type Agent struct {
	ID           AgentID   `json:"id"`
	SettlementID uint64    `json:"settlement_id"`
	Position     world.Vec `json:"position"`
	Target       world.Vec `json:"target"`

	State BehaviorState `json:"state"`

	// StructureID is the structure the villager is assigned to, if any.
	StructureID *uint64 `json:"structure_id,omitempty"`

	Carry Carry `json:"carry"`

	// Path is the current walking plan. Recomputed lazily by the movement
	// system and never persisted.
	Path []world.TileCoord `json:"-"`
}

// NewAgent creates an idle villager at a position.
// The target defaults to the villager's own position so movement code never
// sees a zero-value destination.
func NewAgent(id AgentID, settlementID uint64, pos world.Vec) *Agent {
	return &Agent{
		ID:           id,
		SettlementID: settlementID,
		Position:     pos,
		Target:       pos,
		State:        StateIdle,
	}
}

// ClearTransient drops derived state that must not survive a reload.
func (a *Agent) ClearTransient() {
	a.Path = nil
}
