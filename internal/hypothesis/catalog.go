package hypothesis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is an id-indexed set of hypotheses. Built once at startup; read-only
// afterwards, so it is safe to share across concurrent runs.
type Catalog struct {
	items []Hypothesis
	byID  map[int]Hypothesis
}

// NewCatalog builds a catalog from the given hypotheses. Later entries with a
// duplicate id replace earlier ones, which is how operator YAML files override
// built-ins.
func NewCatalog(items ...Hypothesis) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]Hypothesis, len(items))}
	for _, h := range items {
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("hypothesis %d (%s): %w", h.ID, h.Name, err)
		}
		if _, dup := c.byID[h.ID]; dup {
			for i := range c.items {
				if c.items[i].ID == h.ID {
					c.items[i] = h
					break
				}
			}
		} else {
			c.items = append(c.items, h)
		}
		c.byID[h.ID] = h
	}
	return c, nil
}

// Builtin returns the catalog of shipped scenarios.
func Builtin() *Catalog {
	c, err := NewCatalog(builtin...)
	if err != nil {
		// The shipped set is validated by tests; a failure here is a bug.
		panic(err)
	}
	return c
}

// LoadYAML reads extra hypotheses from a YAML file and merges them over the
// built-in set.
func LoadYAML(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var extra []Hypothesis
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewCatalog(append(append([]Hypothesis{}, builtin...), extra...)...)
}

// ByID looks up a hypothesis. Returns ErrUnknown for ids not in the catalog.
func (c *Catalog) ByID(id int) (Hypothesis, error) {
	h, ok := c.byID[id]
	if !ok {
		return Hypothesis{}, fmt.Errorf("%w: %d", ErrUnknown, id)
	}
	return h, nil
}

// Items returns all hypotheses in catalog order.
func (c *Catalog) Items() []Hypothesis {
	out := make([]Hypothesis, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of hypotheses.
func (c *Catalog) Len() int {
	return len(c.items)
}

// builtin mirrors the scenario set the arena has always shipped with.
var builtin = []Hypothesis{
	{
		ID:           1,
		Name:         "Spontaneous Alliance",
		Description:  "High bribe budget creates repeated Trader-Strategist partnerships.",
		Price:        0.001,
		BribeBudget:  0.01,
		BribeAmount:  0.003,
		BribeRound:   3,
		CartelChance: 0.7,
		PaywallStrict: true,
	},
	{
		ID:           2,
		Name:         "Collusion Threshold",
		Description:  "Low Oracle price encourages private side deals.",
		Price:        0.0005,
		BribeBudget:  0.006,
		BribeAmount:  0.002,
		BribeRound:   2,
		CartelChance: 0.6,
		PaywallStrict: true,
	},
	{
		ID:           3,
		Name:         "Hallucination Reduction",
		Description:  "Paid data yields higher score vs free fallback.",
		Price:        0.0015,
		BribeBudget:  0.004,
		BribeAmount:  0.001,
		BribeRound:   5,
		CartelChance: 0.35,
		PaywallStrict: true,
	},
	{
		ID:           4,
		Name:         "Strategy Fragility",
		Description:  "Aggressive Trader risks bankruptcy under low budgets.",
		Price:        0.001,
		BribeBudget:  0.003,
		BribeAmount:  0.001,
		BribeRound:   4,
		CartelChance: 0.4,
		PaywallStrict: true,
	},
	{
		ID:                 5,
		Name:               "Whistleblower Impact",
		Description:        "Reveal event chills bribes; volume drops afterward.",
		Price:              0.0008,
		BribeBudget:        0.007,
		BribeAmount:        0.002,
		BribeRound:         3,
		CartelChance:       0.55,
		Whistleblower:      true,
		WhistleblowerRound: 6,
		PaywallStrict:      true,
	},
	{
		ID:           6,
		Name:         "Cartel Formation",
		Description:  "Price hike triggers side-deals in mid rounds.",
		Price:        0.0018,
		BribeBudget:  0.009,
		BribeAmount:  0.003,
		BribeRound:   4,
		CartelChance: 0.65,
		PaywallStrict: true,
	},
	{
		ID:           7,
		Name:         "Free-Rider Penalty",
		Description:  "Early free access ends; strict x402 widens earnings gap.",
		Price:        0.001,
		BribeBudget:  0.005,
		BribeAmount:  0.0015,
		BribeRound:   2,
		CartelChance: 0.5,
		PaywallStrict: false,
	},
}
