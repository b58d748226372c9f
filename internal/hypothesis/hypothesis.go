// Package hypothesis holds the economic scenarios the arena can simulate:
// the typed parameter record, the built-in catalog, YAML catalog loading,
// and JSON Schema validation of operator-supplied custom scenarios.
package hypothesis

import (
	"errors"
	"fmt"
)

// ErrUnknown is returned when a hypothesis id is not in the catalog.
var ErrUnknown = errors.New("unknown hypothesis")

// Hypothesis is one named economic scenario. Immutable reference data; the
// engine echoes it back on the run result as `config`.
type Hypothesis struct {
	ID          int     `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`

	// Monetary knobs, in fractional USDC.
	Price       float64 `json:"price" yaml:"price"`             // per-round data price
	BribeBudget float64 `json:"bribeBudget" yaml:"bribeBudget"` // strategist's total side-pay pool
	BribeAmount float64 `json:"bribeAmount" yaml:"bribeAmount"` // nominal per-bribe amount

	// Behavioral knobs.
	BribeRound         int     `json:"bribeRound" yaml:"bribeRound"`     // first round bribes may happen
	CartelChance       float64 `json:"cartelChance" yaml:"cartelChance"` // per-round bribe probability, [0,1]
	Whistleblower      bool    `json:"whistleblower" yaml:"whistleblower"`
	WhistleblowerRound int     `json:"whistleblowerRound,omitempty" yaml:"whistleblowerRound"`
	PaywallStrict      bool    `json:"paywallStrict" yaml:"paywallStrict"` // false grants a 2-round free-data window
}

// Validate rejects malformed hypotheses before any run state is created.
func (h Hypothesis) Validate() error {
	if h.ID <= 0 {
		return fmt.Errorf("hypothesis id must be positive, got %d", h.ID)
	}
	if h.Name == "" {
		return errors.New("hypothesis name is required")
	}
	if h.Price < 0 {
		return fmt.Errorf("price must be non-negative, got %v", h.Price)
	}
	if h.BribeBudget < 0 {
		return fmt.Errorf("bribeBudget must be non-negative, got %v", h.BribeBudget)
	}
	if h.BribeAmount < 0 {
		return fmt.Errorf("bribeAmount must be non-negative, got %v", h.BribeAmount)
	}
	if h.BribeRound < 1 {
		return fmt.Errorf("bribeRound must be at least 1, got %d", h.BribeRound)
	}
	if h.CartelChance < 0 || h.CartelChance > 1 {
		return fmt.Errorf("cartelChance must be within [0,1], got %v", h.CartelChance)
	}
	if h.Whistleblower && h.WhistleblowerRound < 1 {
		return errors.New("whistleblowerRound is required when whistleblower is enabled")
	}
	return nil
}
