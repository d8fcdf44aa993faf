package models

// PresetName identifies a predefined scenario distribution.
type PresetName string

const (
	PresetReferenceOptimized    PresetName = "reference_optimized"
	PresetHighProfit2W1L        PresetName = "high_profit_2w1l"
	PresetProtectedConservative PresetName = "protected_conservative"
	PresetAggressive3W1L        PresetName = "aggressive_3w1l"
)

// PresetScenario is one final score of a distribution, scaled to the capital.
type PresetScenario struct {
	Score          string  `json:"score"`
	Description    string  `json:"description"`
	Profitable     bool    `json:"profitable"`
	Protected      bool    `json:"protected"`
	ReferenceROI   float64 `json:"reference_roi"`
	SuggestedStake float64 `json:"suggested_stake"`
	Stake          float64 `json:"stake"`
	Return         float64 `json:"net_return"`
	ImpliedOdds    float64 `json:"implied_odds"`
}

// ApplicationStake is a group of markets funded together with one weight.
type ApplicationStake struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Weight      float64             `json:"weight"`
	Stake       float64             `json:"stake"`
	Markets     map[BetType]float64 `json:"markets"`
}

// PresetAllocation is a distribution applied to a capital.
type PresetAllocation struct {
	Name         PresetName         `json:"name"`
	Capital      float64            `json:"capital"`
	Scenarios    []PresetScenario   `json:"scenarios"`
	Applications []ApplicationStake `json:"applications"`
	TotalStake   float64            `json:"total_stake"`
}

// Stakes flattens the application groups into one stake per bet type.
func (a PresetAllocation) Stakes() map[BetType]float64 {
	out := make(map[BetType]float64)
	for _, app := range a.Applications {
		for bt, stake := range app.Markets {
			out[bt] += stake
		}
	}
	return out
}
