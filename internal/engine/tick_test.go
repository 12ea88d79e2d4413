package engine

import (
	"errors"
	"testing"
)

func TestEngine_RunsMaxRounds(t *testing.T) {
	eng := NewEngine(5)
	var seen []uint64
	eng.OnRound = func(round uint64) error {
		seen = append(seen, round)
		return nil
	}
	stopped := false
	eng.OnStop = func(round uint64, err error) {
		stopped = true
		if round != 5 || err != nil {
			t.Errorf("OnStop(%d, %v)", round, err)
		}
	}

	if err := eng.Run(); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 5 || seen[0] != 1 || seen[4] != 5 {
		t.Errorf("rounds = %v", seen)
	}
	if !stopped || eng.Running() {
		t.Error("engine did not stop cleanly")
	}
}

func TestEngine_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	eng := NewEngine(10)
	eng.OnRound = func(round uint64) error {
		if round == 3 {
			return boom
		}
		return nil
	}

	if err := eng.Run(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if eng.Round != 2 {
		t.Errorf("completed round = %d, want 2", eng.Round)
	}
}

func TestEngine_Stop(t *testing.T) {
	eng := NewEngine(0)
	eng.OnRound = func(round uint64) error {
		if round == 4 {
			eng.Stop()
		}
		return nil
	}
	if err := eng.Run(); err != nil {
		t.Fatal(err)
	}
	if eng.Round != 4 {
		t.Errorf("stopped at round %d, want 4", eng.Round)
	}
}
