package scoring

// RuleSet maps a stat key to its point weight for one league. Stat keys not
// present in the set contribute nothing; an unknown key in a stat line is
// never an error.
type RuleSet map[string]float64

// Standard stat keys shared by both provider adapters.
const (
	StatReception           = "reception"
	StatRushingYards        = "rushingYards"
	StatRushingTouchdowns   = "rushingTouchdowns"
	StatPassingYards        = "passingYards"
	StatPassingTouchdowns   = "passingTouchdowns"
	StatInterceptions       = "interceptionsThrown"
	StatFumblesLost         = "fumblesLost"
	StatReceivingYards      = "receivingYards"
	StatReceivingTouchdowns = "receivingTouchdowns"
	StatFieldGoalsMade      = "fieldGoalsMade"
	StatExtraPointsMade     = "extraPointsMade"
	StatDefensiveTouchdowns = "defensiveTouchdowns"
	StatDefensiveSacks      = "defensiveSacks"
)

// DefaultNFLRules is the documented fallback when a league's scoring
// settings are absent from the provider response (PPR variant).
func DefaultNFLRules() RuleSet {
	return RuleSet{
		StatReception:           1.0,
		StatRushingYards:        0.1,
		StatRushingTouchdowns:   6.0,
		StatPassingYards:        0.04,
		StatPassingTouchdowns:   4.0,
		StatInterceptions:       -1.0,
		StatFumblesLost:         -1.0,
		StatReceivingYards:      0.1,
		StatReceivingTouchdowns: 6.0,
		StatFieldGoalsMade:      3.0,
		StatExtraPointsMade:     1.0,
		StatDefensiveTouchdowns: 6.0,
		StatDefensiveSacks:      1.0,
	}
}

// Score folds a raw stat line into points under the rule set. The sum is
// order-independent and no rounding is applied here; formatting belongs to
// the presentation layer.
func Score(statCounts map[string]float64, rules RuleSet) float64 {
	total := 0.0
	for key, count := range statCounts {
		weight, ok := rules[key]
		if !ok {
			continue
		}
		total += count * weight
	}
	return total
}
