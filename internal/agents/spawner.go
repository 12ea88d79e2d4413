// Agent spawning: builds the preset populations and seeded heterogeneous
// populations for larger runs.
package agents

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Template describes the starting state of one agent.
type Template struct {
	ConsumptionRate float64
	MaxSaving       float64
	MaxDebt         float64
	Productivity    float64
	StartIncome     float64
	Cash            float64
	Water           float64
	Food            float64
	Needs           DailyNeeds
	HoursPerDay     float64
	TimePreference  float64
	Specialty       GoodType
}

// DefaultTemplate returns the baseline person: fully productive, 10 cash,
// 10 of each good, needs of 3 water and 3 food per day.
func DefaultTemplate() Template {
	return Template{
		ConsumptionRate: 0.6,
		Productivity:    1,
		StartIncome:     50,
		Cash:            10,
		Water:           10,
		Food:            10,
		Needs:           DailyNeeds{Water: 3, Food: 3},
		HoursPerDay:     8,
	}
}

// PopulationConfig controls generated populations. Each range is sampled
// from an independent simplex noise layer so neighboring agents have
// correlated traits.
type PopulationConfig struct {
	Count              int
	StartIncome        float64
	MinProductivity    float64
	MaxProductivity    float64
	MinConsumptionRate float64
	MaxConsumptionRate float64
	MaxSavingIncomes   float64 // savings cap as a multiple of start income
	MaxDebtIncomes     float64 // debt cap as a multiple of start income
	Frequency          float64 // noise sampling step between agents
}

// DefaultPopulationConfig returns a 100-agent population spread around
// the circulation preset.
func DefaultPopulationConfig() PopulationConfig {
	return PopulationConfig{
		Count:              100,
		StartIncome:        50,
		MinProductivity:    0.5,
		MaxProductivity:    1.5,
		MinConsumptionRate: 0.5,
		MaxConsumptionRate: 0.95,
		MaxSavingIncomes:   1.2,
		MaxDebtIncomes:     1.0,
		Frequency:          0.15,
	}
}

// Spawner creates agents for the simulation.
type Spawner struct {
	seed   int64
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SetNextID sets the next agent ID to be issued.
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// Spawn creates one agent from a template.
func (s *Spawner) Spawn(t Template) *Agent {
	id := s.nextID
	s.nextID++

	a := &Agent{
		ID:              id,
		ConsumptionRate: clamp01(t.ConsumptionRate),
		MaxSaving:       t.MaxSaving,
		MaxDebt:         t.MaxDebt,
		Productivity:    t.Productivity,
		NextIncome:      t.StartIncome,
		Cash:            t.Cash,
		Needs:           t.Needs,
		Health:          MaxHealth,
		Specialty:       t.Specialty,
		HoursPerDay:     t.HoursPerDay,
		TimePreference:  t.TimePreference,
	}
	a.Inventory[GoodWater] = t.Water
	a.Inventory[GoodFood] = t.Food
	return a
}

// SpawnCirculation returns the three-person capital market economy: one
// saver with room for 60 of savings and two borrowers allowed 50 of debt
// each, all consuming 60% of an initial income of 50.
func (s *Spawner) SpawnCirculation() []*Agent {
	saver := DefaultTemplate()
	saver.MaxSaving = 60

	borrower := DefaultTemplate()
	borrower.MaxDebt = 50

	return []*Agent{
		s.Spawn(saver),
		s.Spawn(borrower),
		s.Spawn(borrower),
	}
}

// consumptionTimePreferences are the ten households of the goods economy.
var consumptionTimePreferences = []float64{0.10, 0.05, 0.07, 0.08, 0.02, 0.01, 0.07, 0.01, 0.04, 0.20}

// SpawnConsumption returns the ten-person goods economy. Specialties
// alternate between water and food producers.
func (s *Spawner) SpawnConsumption() []*Agent {
	out := make([]*Agent, 0, len(consumptionTimePreferences))
	for i, tp := range consumptionTimePreferences {
		t := DefaultTemplate()
		t.TimePreference = tp
		t.Specialty = AllGoods[i%NumGoods]
		out = append(out, s.Spawn(t))
	}
	return out
}

// SpawnPopulation creates a heterogeneous population. Productivity,
// consumption rate, and credit capacity come from separate noise layers;
// specialty is drawn uniformly.
func (s *Spawner) SpawnPopulation(cfg PopulationConfig) []*Agent {
	prodNoise := opensimplex.NewNormalized(s.seed)
	rateNoise := opensimplex.NewNormalized(s.seed + 1)
	creditNoise := opensimplex.NewNormalized(s.seed + 2)

	freq := cfg.Frequency
	if freq <= 0 {
		freq = 0.15
	}

	out := make([]*Agent, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		x := float64(i) * freq

		t := DefaultTemplate()
		t.StartIncome = cfg.StartIncome
		t.Productivity = lerp(cfg.MinProductivity, cfg.MaxProductivity, prodNoise.Eval2(x, 0))
		t.ConsumptionRate = lerp(cfg.MinConsumptionRate, cfg.MaxConsumptionRate, rateNoise.Eval2(x, 0))
		t.Specialty = AllGoods[s.rng.Intn(NumGoods)]

		// Creditworthiness splits the population: high values lend, low values borrow.
		credit := creditNoise.Eval2(x, 0)
		if credit >= 0.5 {
			t.MaxSaving = cfg.StartIncome * cfg.MaxSavingIncomes * (credit - 0.5) * 2
		} else {
			t.MaxDebt = cfg.StartIncome * cfg.MaxDebtIncomes * (0.5 - credit) * 2
		}

		out = append(out, s.Spawn(t))
	}
	return out
}

func lerp(lo, hi, t float64) float64 {
	return lo + (hi-lo)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
