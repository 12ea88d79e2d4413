package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/circulation/internal/agents"
	"github.com/talgya/circulation/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "circsim.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_SaveRounds(t *testing.T) {
	db := openTestDB(t)

	run, err := db.StartRun("circulation", 42)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("empty run ID")
	}

	sim := engine.NewSimulation(agents.NewSpawner(42).SpawnCirculation(), engine.Options{
		Shocks: engine.ShockSchedule{engine.CreditCrunch(2)},
	})
	for round := uint64(1); round <= 3; round++ {
		r, err := sim.Round(round)
		if err != nil {
			t.Fatal(err)
		}
		if err := db.SaveRound(run.ID, r); err != nil {
			t.Fatalf("SaveRound(%d): %v", round, err)
		}
		if err := db.SaveEvents(run.ID, sim.DrainEvents()); err != nil {
			t.Fatalf("SaveEvents: %v", err)
		}
	}

	rows, err := db.RecentRounds(run.ID, 2)
	if err != nil {
		t.Fatalf("RecentRounds: %v", err)
	}
	if len(rows) != 2 || rows[0].Round != 3 || rows[1].Round != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[1].BorrowerDemand != 0 || rows[1].BorrowedVsDesired != 1 {
		t.Errorf("round 2 after crunch = %+v", rows[1])
	}

	agentRows, err := db.AgentRounds(run.ID, 1)
	if err != nil {
		t.Fatalf("AgentRounds: %v", err)
	}
	if len(agentRows) != 3 {
		t.Fatalf("agent rows = %d, want 3", len(agentRows))
	}
	if agentRows[1].Borrowed != 10 || agentRows[0].Saved != 20 {
		t.Errorf("round 1 agents = %+v", agentRows)
	}

	events, err := db.RecentEvents(run.ID, 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].Category != "shock" || events[0].Round != 2 {
		t.Errorf("events = %+v", events)
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Preset != "circulation" || got.Seed != 42 {
		t.Errorf("run = %+v", got)
	}
}

func TestDB_RunsAreSeparate(t *testing.T) {
	db := openTestDB(t)

	a, err := db.StartRun("circulation", 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := db.StartRun("circulation", 2)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Fatal("duplicate run IDs")
	}

	if err := db.SaveRound(a.ID, &engine.RoundReport{Round: 1}); err != nil {
		t.Fatal(err)
	}
	rows, err := db.RecentRounds(b.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("run b sees %d rounds of run a", len(rows))
	}

	if err := db.SaveRound(a.ID, &engine.RoundReport{Round: 1}); err == nil {
		t.Error("expected error saving a round twice")
	}
}

func TestDB_SaveEventsEmpty(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveEvents("none", nil); err != nil {
		t.Fatal(err)
	}
}
