// Package metrics computes aggregate statistics over a finished run ledger.
package metrics

import (
	"math"

	"github.com/swarmforge/arena/internal/agents"
	"github.com/swarmforge/arena/internal/ledger"
)

// Metrics summarizes one run. Field names are part of the external JSON
// contract consumed by the front end.
type Metrics struct {
	TotalTx        int     `json:"totalTx"`
	PublicTx       int     `json:"publicTx"`
	PrivateTx      int     `json:"privateTx"`
	BribeCount     int     `json:"bribeCount"`
	CollusionRatio float64 `json:"collusionRatio"` // private/total, 0 on empty ledger
	BankruptRate   float64 `json:"bankruptRate"`
	Rounds         int     `json:"rounds"`
}

// Compute aggregates the ledger and final agent state. Pure; never fails on
// a well-formed ledger — every empty-input case has a zero default.
func Compute(entries []ledger.Entry, roster []*agents.Agent, rounds int) Metrics {
	m := Metrics{TotalTx: len(entries), Rounds: rounds}

	for _, e := range entries {
		if !e.Public {
			m.PrivateTx++
		}
		if e.Kind == ledger.KindBribe {
			m.BribeCount++
		}
	}
	m.PublicTx = m.TotalTx - m.PrivateTx

	if m.TotalTx > 0 {
		m.CollusionRatio = round3(float64(m.PrivateTx) / float64(m.TotalTx))
	}

	bankrupt := 0
	for _, a := range roster {
		if a.Balance <= 0 {
			bankrupt++
		}
	}
	if len(roster) > 0 {
		m.BankruptRate = round3(float64(bankrupt) / float64(len(roster)))
	}
	return m
}

func round3(v float64) float64 {
	return math.Round(v*1e3) / 1e3
}
