package agents

import "testing"

func TestConsume(t *testing.T) {
	tests := []struct {
		name       string
		water      float64
		food       float64
		health     float64
		wantUnmet  int
		wantHealth float64
		wantWater  float64
		wantFood   float64
	}{
		{"fed", 5, 5, 50, 0, 52, 2, 2},
		{"thirsty", 1, 5, 50, 1, 50, 1, 2},
		{"starving", 0, 0, 50, 2, 48, 0, 0},
		{"health capped", 3, 3, MaxHealth, 0, MaxHealth, 0, 0},
		{"health floored", 0, 0, 1, 2, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Agent{Needs: DailyNeeds{Water: 3, Food: 3}, Health: tt.health}
			a.Inventory[GoodWater] = tt.water
			a.Inventory[GoodFood] = tt.food

			if got := Consume(a); got != tt.wantUnmet {
				t.Errorf("unmet = %d, want %d", got, tt.wantUnmet)
			}
			if a.Health != tt.wantHealth {
				t.Errorf("health = %g, want %g", a.Health, tt.wantHealth)
			}
			if a.Inventory[GoodWater] != tt.wantWater || a.Inventory[GoodFood] != tt.wantFood {
				t.Errorf("inventory = %v, want [%g %g]", a.Inventory, tt.wantWater, tt.wantFood)
			}
		})
	}
}

func TestShortfall(t *testing.T) {
	a := &Agent{Needs: DailyNeeds{Water: 3, Food: 3}}
	a.Inventory[GoodWater] = 1
	a.Inventory[GoodFood] = 7

	if got := Shortfall(a, GoodWater); got != 2 {
		t.Errorf("water shortfall = %g, want 2", got)
	}
	if got := Shortfall(a, GoodFood); got != -4 {
		t.Errorf("food shortfall = %g, want -4", got)
	}
}

func TestGoodType_Text(t *testing.T) {
	for _, good := range AllGoods {
		b, err := good.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back GoodType
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", b, err)
		}
		if back != good {
			t.Errorf("%s read back as %s", good, back)
		}
	}

	var g GoodType
	if err := g.UnmarshalText([]byte("GOLD")); err == nil {
		t.Error("expected error for unknown good")
	}
}
