// Package village provides settlements, structures, and transport links.
package village

import (
	"github.com/talgya/hearthstead/internal/world"
)

// SettlementID is a unique identifier for a settlement.
type SettlementID = uint64

// Stockpile holds a settlement's stored resources.
type Stockpile struct {
	Wood  int `json:"wood"`
	Stone int `json:"stone"`
	Food  int `json:"food"`
}

// Settlement represents a population center on the grid.
type Settlement struct {
	ID       SettlementID `json:"id"`
	Name     string       `json:"name"`
	Position world.Vec    `json:"position"`

	// Demographics
	Population uint32 `json:"population"`
	Homeless   uint32 `json:"homeless"`

	// Economy
	Stockpile Stockpile `json:"stockpile"`

	// Tier is the settlement's ordinal rank (hamlet → village → town).
	Tier uint8 `json:"tier"`
}

// NewSettlement creates a settlement with initialized defaults at a position.
func NewSettlement(id SettlementID, name string, pos world.Vec) *Settlement {
	return &Settlement{
		ID:       id,
		Name:     name,
		Position: pos,
	}
}
