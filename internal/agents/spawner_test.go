package agents

import "testing"

func TestSpawnCirculation(t *testing.T) {
	pop := NewSpawner(42).SpawnCirculation()
	if len(pop) != 3 {
		t.Fatalf("got %d agents, want 3", len(pop))
	}

	want := []struct{ maxSaving, maxDebt float64 }{{60, 0}, {0, 50}, {0, 50}}
	for i, a := range pop {
		if a.ID != AgentID(i+1) {
			t.Errorf("agent %d has ID %d", i, a.ID)
		}
		if a.MaxSaving != want[i].maxSaving || a.MaxDebt != want[i].maxDebt {
			t.Errorf("agent %d caps = (%g, %g), want (%g, %g)",
				a.ID, a.MaxSaving, a.MaxDebt, want[i].maxSaving, want[i].maxDebt)
		}
		if a.ConsumptionRate != 0.6 || a.NextIncome != 50 || a.Productivity != 1 {
			t.Errorf("agent %d = %+v, want rate 0.6, income 50, productivity 1", a.ID, a)
		}
		if a.Savings != 0 || a.Debt != 0 {
			t.Errorf("agent %d starts with balances", a.ID)
		}
	}
}

func TestSpawnConsumption(t *testing.T) {
	pop := NewSpawner(42).SpawnConsumption()
	if len(pop) != 10 {
		t.Fatalf("got %d agents, want 10", len(pop))
	}
	counts := map[GoodType]int{}
	for _, a := range pop {
		counts[a.Specialty]++
		if a.Inventory[GoodWater] != 10 || a.Inventory[GoodFood] != 10 || a.Cash != 10 {
			t.Errorf("agent %d starting holdings %v cash %g", a.ID, a.Inventory, a.Cash)
		}
	}
	if counts[GoodWater] != 5 || counts[GoodFood] != 5 {
		t.Errorf("specialties = %v, want 5 each", counts)
	}
	if pop[9].TimePreference != 0.20 {
		t.Errorf("last time preference = %g", pop[9].TimePreference)
	}
}

func TestSpawnPopulation_Deterministic(t *testing.T) {
	cfg := DefaultPopulationConfig()
	a := NewSpawner(7).SpawnPopulation(cfg)
	b := NewSpawner(7).SpawnPopulation(cfg)

	if len(a) != cfg.Count {
		t.Fatalf("got %d agents, want %d", len(a), cfg.Count)
	}
	for i := range a {
		if *a[i] != *b[i] {
			t.Fatalf("agent %d differs between identical seeds", i)
		}
	}
}

func TestSpawnPopulation_Ranges(t *testing.T) {
	cfg := DefaultPopulationConfig()
	pop := NewSpawner(3).SpawnPopulation(cfg)

	for _, a := range pop {
		if a.Productivity < cfg.MinProductivity || a.Productivity > cfg.MaxProductivity {
			t.Errorf("agent %d productivity %g out of range", a.ID, a.Productivity)
		}
		if a.ConsumptionRate < cfg.MinConsumptionRate || a.ConsumptionRate > cfg.MaxConsumptionRate {
			t.Errorf("agent %d consumption rate %g out of range", a.ID, a.ConsumptionRate)
		}
		if a.MaxSaving > 0 && a.MaxDebt > 0 {
			t.Errorf("agent %d is both lender and borrower", a.ID)
		}
		if a.MaxSaving > cfg.StartIncome*cfg.MaxSavingIncomes || a.MaxDebt > cfg.StartIncome*cfg.MaxDebtIncomes {
			t.Errorf("agent %d caps (%g, %g) too large", a.ID, a.MaxSaving, a.MaxDebt)
		}
	}
}

func TestSpawner_SetNextID(t *testing.T) {
	s := NewSpawner(1)
	s.SetNextID(100)
	if a := s.Spawn(DefaultTemplate()); a.ID != 100 {
		t.Errorf("ID = %d, want 100", a.ID)
	}
}
