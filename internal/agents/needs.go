// Daily needs: the goods an agent must consume each round to stay healthy.
package agents

// MaxHealth caps health regained by eating and drinking.
const MaxHealth = 100.0

// DailyNeeds is the per-round quantity of each good an agent wants to consume.
type DailyNeeds struct {
	Water float64 `json:"water" yaml:"water"`
	Food  float64 `json:"food" yaml:"food"`
}

// Desired returns the daily quantity wanted of a good.
func (n DailyNeeds) Desired(good GoodType) float64 {
	switch good {
	case GoodWater:
		return n.Water
	case GoodFood:
		return n.Food
	default:
		return 0
	}
}

// Consume eats and drinks the agent's daily needs from inventory.
// Each satisfied need restores one point of health and each unmet need
// costs one; health never leaves [0, MaxHealth]. Returns the number of
// needs that went unmet.
func Consume(a *Agent) int {
	unmet := 0
	for _, good := range AllGoods {
		desired := a.Needs.Desired(good)
		if !a.Inventory.Has(good, desired) {
			// Dehydrating or starving.
			unmet++
			a.Health--
			continue
		}
		a.Inventory.Remove(good, desired)
		a.Health++
	}

	if a.Health > MaxHealth {
		a.Health = MaxHealth
	}
	if a.Health < 0 {
		a.Health = 0
	}
	return unmet
}

// Shortfall returns how much of a good the agent lacks for today's needs.
// Negative values are surplus.
func Shortfall(a *Agent, good GoodType) float64 {
	return a.Needs.Desired(good) - a.Inventory[good]
}
