package game

import (
	"testing"

	"github.com/bitefight-arena/internal/banter"
	"github.com/bitefight-arena/internal/domain"
)

// scriptRand replays queued values and falls back to "boring" outcomes
// (fight, hit, no crit, minimum rolls) when a queue runs dry.
type scriptRand struct {
	floats []float64
	ints   []int
}

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptRand) IntBetween(min, max int) int {
	if len(r.ints) == 0 {
		return min
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return clamp(v, min, max)
}

func (r *scriptRand) Shuffle(n int, swap func(i, j int)) {}

// fixedRand resolves every action as a fight that hits for a fixed amount.
type fixedRand struct {
	damage int
}

func (r fixedRand) Float64() float64 { return 0.99 }

func (r fixedRand) IntBetween(min, max int) int {
	if min == FightDamageMin && max == FightDamageMax {
		return r.damage
	}
	return min
}

func (r fixedRand) Shuffle(n int, swap func(i, j int)) {}

func testState(players ...domain.Player) MatchState {
	st := NewMatchState(MaxHP)
	st.Roster = players
	for _, p := range players {
		st.HP[p.ID] = st.MaxHP
	}
	return st
}

var (
	alice = domain.Player{ID: 1, Name: "Alice"}
	bob   = domain.Player{ID: 2, Name: "Bob"}
	cleo  = domain.Player{ID: 3, Name: "Cleo"}
)

func TestBleedTickRunsBeforeAttacks(t *testing.T) {
	st := testState(alice, bob)
	st.Bleed[alice.ID] = 4

	result := ResolveRound(&st, 1, banter.Load(), &scriptRand{})

	if len(result.Events) == 0 {
		t.Fatal("expected events")
	}
	first := result.Events[0]
	if first.Kind != domain.ActionBleed || first.TargetID != alice.ID || first.Damage != 4 {
		t.Fatalf("expected bleed tick on alice first, got %+v", first)
	}
	if st.Bleed[alice.ID] != 4 {
		t.Fatalf("bleed stack should never decay, got %d", st.Bleed[alice.ID])
	}
}

func TestBleedDeathCreditsNoKill(t *testing.T) {
	st := testState(alice, bob)
	st.HP[alice.ID] = 3
	st.Bleed[alice.ID] = 5

	result := ResolveRound(&st, 1, banter.Load(), &scriptRand{})

	if st.HP[alice.ID] != 0 {
		t.Fatalf("expected alice at 0 HP, got %d", st.HP[alice.ID])
	}
	for id, kills := range st.Kills {
		if kills != 0 {
			t.Fatalf("bleed death credited a kill to player %d", id)
		}
	}
	var fatal bool
	for _, e := range result.Events {
		if e.Kind == domain.ActionBleed && e.Fatal {
			fatal = true
		}
	}
	if !fatal {
		t.Fatal("expected a fatal bleed event")
	}
	if got := len(st.Alive()); got != 1 {
		t.Fatalf("expected one player alive, got %d", got)
	}
}

func TestBiteBleedStacksAdditively(t *testing.T) {
	st := testState(alice, bob)
	tbl := banter.Load()

	// hit, bleed applied
	rnd := &scriptRand{floats: []float64{0.99, 0.0}, ints: []int{10, 3}}
	resolveBite(&st, tbl, rnd, alice, bob)
	if st.Bleed[bob.ID] != 3 {
		t.Fatalf("expected bleed stack 3, got %d", st.Bleed[bob.ID])
	}

	rnd = &scriptRand{floats: []float64{0.99, 0.0}, ints: []int{10, 4}}
	resolveBite(&st, tbl, rnd, alice, bob)
	if st.Bleed[bob.ID] != 7 {
		t.Fatalf("expected bleed stacks to add to 7, got %d", st.Bleed[bob.ID])
	}
	if st.HP[bob.ID] != 80 {
		t.Fatalf("expected bob at 80 HP after two bites, got %d", st.HP[bob.ID])
	}
}

func TestCritDamageTruncates(t *testing.T) {
	st := testState(alice, bob)

	// no miss, base 15, crit
	rnd := &scriptRand{floats: []float64{0.5, 0.0}, ints: []int{15}}
	events := resolveFight(&st, banter.Load(), rnd, alice, bob)

	if events[0].Outcome != domain.OutcomeCrit {
		t.Fatalf("expected crit, got %s", events[0].Outcome)
	}
	if events[0].Damage != 22 {
		t.Fatalf("expected 15*1.5 truncated to 22, got %d", events[0].Damage)
	}
	if st.HP[bob.ID] != 78 {
		t.Fatalf("expected bob at 78 HP, got %d", st.HP[bob.ID])
	}
}

func TestLethalHitClampsAndCredits(t *testing.T) {
	st := testState(alice, bob)
	st.HP[bob.ID] = 10

	rnd := &scriptRand{floats: []float64{0.5, 0.99}, ints: []int{28}}
	events := resolveFight(&st, banter.Load(), rnd, alice, bob)

	if st.HP[bob.ID] != 0 {
		t.Fatalf("HP must clamp at 0, got %d", st.HP[bob.ID])
	}
	if st.Kills[alice.ID] != 1 {
		t.Fatalf("expected kill credited to alice, got %d", st.Kills[alice.ID])
	}
	if len(events) != 2 || !events[0].Fatal || !events[1].Fatal {
		t.Fatalf("expected hit plus death event, got %+v", events)
	}
	if events[1].AttackerID != 0 {
		t.Fatalf("death event must not carry an attacker, got %d", events[1].AttackerID)
	}
}

func TestStalemateFillerEvent(t *testing.T) {
	st := testState(alice)

	result := ResolveRound(&st, 1, banter.Load(), &scriptRand{})

	if len(result.Events) != 1 || result.Events[0].Kind != domain.ActionStalemate {
		t.Fatalf("expected single stalemate event, got %+v", result.Events)
	}
	if result.KeyPlay != nil {
		t.Fatal("stalemate rounds have no key play")
	}
}

func TestKeyPlayPicksMostRecentPair(t *testing.T) {
	st := testState(alice, bob)

	// alice misses bob, then bob misses alice; the later miss wins.
	rnd := &scriptRand{floats: []float64{
		0.99, 0.0, // alice: fight, miss
		0.99, 0.0, // bob: fight, miss
		0.99, // key play: no swap
	}}
	result := ResolveRound(&st, 1, banter.Load(), rnd)

	kp := result.KeyPlay
	if kp == nil {
		t.Fatal("expected a key play")
	}
	if kp.Attacker.ID != bob.ID || kp.Target.ID != alice.ID {
		t.Fatalf("expected bob vs alice, got %+v", kp)
	}
	if !kp.AttackerMissed {
		t.Fatal("expected attacker-missed flag on a miss event")
	}
	if kp.Swap {
		t.Fatal("swap should follow the scripted roll")
	}
}

func TestKeyPlaySkipsAllDeadPairs(t *testing.T) {
	st := testState(alice, bob, cleo)
	st.HP[alice.ID] = 0
	st.HP[bob.ID] = 0

	events := []domain.RoundEvent{
		{Kind: domain.ActionFight, Outcome: domain.OutcomeHit, AttackerID: alice.ID, TargetID: bob.ID},
	}
	if kp := pickKeyPlay(&st, events, &scriptRand{}); kp != nil {
		t.Fatalf("expected no key play when both participants are dead, got %+v", kp)
	}

	events = append(events, domain.RoundEvent{
		Kind: domain.ActionFight, Outcome: domain.OutcomeHit, AttackerID: cleo.ID, TargetID: bob.ID,
	})
	kp := pickKeyPlay(&st, events, &scriptRand{})
	if kp == nil || kp.Attacker.ID != cleo.ID {
		t.Fatalf("expected cleo's hit to qualify, got %+v", kp)
	}
}

func TestDeterministicDuelLastsFiveRounds(t *testing.T) {
	st := testState(alice, bob)
	tbl := banter.Load()
	rnd := fixedRand{damage: 20}

	rounds := 0
	for {
		rounds++
		ResolveRound(&st, rounds, tbl, rnd)
		if len(st.Alive()) <= 1 {
			break
		}
		if rounds > 10 {
			t.Fatal("duel did not terminate")
		}
	}

	if rounds != 5 {
		t.Fatalf("expected exactly 5 rounds, got %d", rounds)
	}
	alive := st.Alive()
	if len(alive) != 1 || alive[0].ID != alice.ID {
		t.Fatalf("expected alice to survive, got %+v", alive)
	}
	if st.HP[alice.ID] != 20 {
		t.Fatalf("expected alice at 20 HP, got %d", st.HP[alice.ID])
	}
	if st.Kills[alice.ID] != 1 || st.Kills[bob.ID] != 0 {
		t.Fatalf("unexpected kill tally: %+v", st.Kills)
	}
}
