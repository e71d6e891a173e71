package game

import (
	"strconv"

	"github.com/bitefight-arena/internal/banter"
	"github.com/bitefight-arena/internal/domain"
)

// MatchState is the mutable combat state of one match: roster order, health,
// bleed stacks and kill credits. The owning session serializes access.
type MatchState struct {
	Roster []domain.Player
	HP     map[int64]int
	Bleed  map[int64]int
	Kills  map[int64]int
	MaxHP  int
}

// NewMatchState returns an empty state with the given health cap.
func NewMatchState(maxHP int) MatchState {
	if maxHP <= 0 {
		maxHP = MaxHP
	}
	return MatchState{
		HP:    make(map[int64]int),
		Bleed: make(map[int64]int),
		Kills: make(map[int64]int),
		MaxHP: maxHP,
	}
}

// Alive returns the roster members with health above zero, in join order.
func (st *MatchState) Alive() []domain.Player {
	var alive []domain.Player
	for _, p := range st.Roster {
		if st.HP[p.ID] > 0 {
			alive = append(alive, p)
		}
	}
	return alive
}

// Lookup finds a roster member by ID.
func (st *MatchState) Lookup(id int64) (domain.Player, bool) {
	for _, p := range st.Roster {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Player{}, false
}

// HealthSnapshot returns the current health of every roster member, in
// join order.
func (st *MatchState) HealthSnapshot() []domain.PlayerHealth {
	out := make([]domain.PlayerHealth, 0, len(st.Roster))
	for _, p := range st.Roster {
		out = append(out, domain.PlayerHealth{Player: p, HP: st.HP[p.ID], MaxHP: st.MaxHP})
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ResolveRound runs one full round against the state: bleed ticks first,
// then attacks in a shuffled order, then key-play selection over the
// structured event log. The caller checks the termination condition.
func ResolveRound(st *MatchState, round int, tbl *banter.Table, rnd Rand) domain.RoundResult {
	var events []domain.RoundEvent

	// Bleed phase. Deaths here credit no one.
	for _, p := range st.Roster {
		stack := st.Bleed[p.ID]
		if stack <= 0 || st.HP[p.ID] <= 0 {
			continue
		}
		st.HP[p.ID] = clamp(st.HP[p.ID]-stack, 0, st.MaxHP)
		events = append(events, domain.RoundEvent{
			Kind:     domain.ActionBleed,
			Outcome:  domain.OutcomeHit,
			TargetID: p.ID,
			Damage:   stack,
			Text: banter.Format(tbl.PickOr("bleed_tick", "[player] suffers bleed for [dmg] damage."), map[string]string{
				"player": p.Name,
				"dmg":    strconv.Itoa(stack),
				"hp":     strconv.Itoa(st.HP[p.ID]),
			}),
		})
		if st.HP[p.ID] == 0 {
			events = append(events, domain.RoundEvent{
				Kind:     domain.ActionBleed,
				Outcome:  domain.OutcomeHit,
				TargetID: p.ID,
				Fatal:    true,
				Text: banter.Format(tbl.PickOr("death_bleed", "[player] succumbs to bleeding."), map[string]string{
					"player": p.Name,
				}),
			})
		}
	}

	// Attack phase over the post-bleed alive set, in random order.
	attackers := st.Alive()
	rnd.Shuffle(len(attackers), func(i, j int) {
		attackers[i], attackers[j] = attackers[j], attackers[i]
	})

	for _, attacker := range attackers {
		// Killed earlier this round
		if st.HP[attacker.ID] <= 0 {
			continue
		}
		target, ok := pickTarget(st, attacker, rnd)
		if !ok {
			// Last player standing mid-round
			break
		}

		if rnd.Float64() < BiteChance {
			events = append(events, resolveBite(st, tbl, rnd, attacker, target)...)
		} else {
			events = append(events, resolveFight(st, tbl, rnd, attacker, target)...)
		}
	}

	if len(events) == 0 {
		events = append(events, domain.RoundEvent{
			Kind: domain.ActionStalemate,
			Text: tbl.PickOr("stalemate", "The fighters circle, waiting for an opening."),
		})
	}

	return domain.RoundResult{
		Round:   round,
		Intro:   tbl.Pick("round_intro"),
		Events:  events,
		Health:  st.HealthSnapshot(),
		KeyPlay: pickKeyPlay(st, events, rnd),
	}
}

func pickTarget(st *MatchState, attacker domain.Player, rnd Rand) (domain.Player, bool) {
	var candidates []domain.Player
	for _, p := range st.Alive() {
		if p.ID != attacker.ID {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return domain.Player{}, false
	}
	return candidates[rnd.IntBetween(0, len(candidates)-1)], true
}

func resolveBite(st *MatchState, tbl *banter.Table, rnd Rand, attacker, target domain.Player) []domain.RoundEvent {
	if rnd.Float64() < BiteMissChance {
		return []domain.RoundEvent{{
			Kind:       domain.ActionBite,
			Outcome:    domain.OutcomeMiss,
			AttackerID: attacker.ID,
			TargetID:   target.ID,
			Text: banter.Format(tbl.PickOr("bite_miss", "[attacker] snaps at air. Miss."), map[string]string{
				"attacker": attacker.Name,
				"target":   target.Name,
			}),
		}}
	}

	dmg := rnd.IntBetween(BiteDamageMin, BiteDamageMax)
	tag := ""
	stack := 0
	if rnd.Float64() < BleedChance {
		stack = rnd.IntBetween(BleedStackMin, BleedStackMax)
		st.Bleed[target.ID] += stack
		tag = banter.Format(tbl.PickOr("bite_bleed", "bleed applied (+[bleed] per round)"), map[string]string{
			"bleed": strconv.Itoa(stack),
		})
	}
	st.HP[target.ID] = clamp(st.HP[target.ID]-dmg, 0, st.MaxHP)
	fatal := st.HP[target.ID] == 0

	events := []domain.RoundEvent{{
		Kind:       domain.ActionBite,
		Outcome:    domain.OutcomeHit,
		AttackerID: attacker.ID,
		TargetID:   target.ID,
		Damage:     dmg,
		BleedStack: stack,
		Fatal:      fatal,
		Text: banter.Format(tbl.PickOr("bite_hit", "[attacker] bites [target] for [dmg]. [tag] [target] at [hp] HP."), map[string]string{
			"attacker": attacker.Name,
			"target":   target.Name,
			"dmg":      strconv.Itoa(dmg),
			"hp":       strconv.Itoa(st.HP[target.ID]),
			"tag":      tag,
		}),
	}}
	if fatal {
		st.Kills[attacker.ID]++
		events = append(events, deathEvent(tbl, "death_bite", "[target] falls to the fangs.", domain.ActionBite, attacker, target))
	}
	return events
}

func resolveFight(st *MatchState, tbl *banter.Table, rnd Rand, attacker, target domain.Player) []domain.RoundEvent {
	if rnd.Float64() < FightMissChance {
		return []domain.RoundEvent{{
			Kind:       domain.ActionFight,
			Outcome:    domain.OutcomeMiss,
			AttackerID: attacker.ID,
			TargetID:   target.ID,
			Text: banter.Format(tbl.PickOr("fight_miss", "[attacker] swings wide at [target]. Miss."), map[string]string{
				"attacker": attacker.Name,
				"target":   target.Name,
			}),
		}}
	}

	dmg := rnd.IntBetween(FightDamageMin, FightDamageMax)
	outcome := domain.OutcomeHit
	category := "fight_hit"
	if rnd.Float64() < CritChance {
		dmg = int(float64(dmg) * CritMultiplier)
		outcome = domain.OutcomeCrit
		category = "fight_crit"
	}
	st.HP[target.ID] = clamp(st.HP[target.ID]-dmg, 0, st.MaxHP)
	fatal := st.HP[target.ID] == 0

	events := []domain.RoundEvent{{
		Kind:       domain.ActionFight,
		Outcome:    outcome,
		AttackerID: attacker.ID,
		TargetID:   target.ID,
		Damage:     dmg,
		Fatal:      fatal,
		Text: banter.Format(tbl.PickOr(category, "[attacker] hits [target] for [dmg]. [target] at [hp] HP."), map[string]string{
			"attacker": attacker.Name,
			"target":   target.Name,
			"dmg":      strconv.Itoa(dmg),
			"hp":       strconv.Itoa(st.HP[target.ID]),
		}),
	}}
	if fatal {
		st.Kills[attacker.ID]++
		events = append(events, deathEvent(tbl, "death_fight", "[target] is knocked out.", domain.ActionFight, attacker, target))
	}
	return events
}

// deathEvent narrates an elimination. It carries only the target in its
// structured fields so key-play selection keeps pointing at the action that
// caused it.
func deathEvent(tbl *banter.Table, category, fallback string, kind domain.ActionKind, attacker, target domain.Player) domain.RoundEvent {
	return domain.RoundEvent{
		Kind:     kind,
		Outcome:  domain.OutcomeHit,
		TargetID: target.ID,
		Fatal:    true,
		Text: banter.Format(tbl.PickOr(category, fallback), map[string]string{
			"attacker": attacker.Name,
			"target":   target.Name,
		}),
	}
}

// pickKeyPlay scans the round's events most-recent-first for one that pairs
// two distinct roster members of whom at least one is still alive. No match
// means no illustration this round.
func pickKeyPlay(st *MatchState, events []domain.RoundEvent, rnd Rand) *domain.KeyPlay {
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.AttackerID == 0 || e.TargetID == 0 || e.AttackerID == e.TargetID {
			continue
		}
		if st.HP[e.AttackerID] <= 0 && st.HP[e.TargetID] <= 0 {
			continue
		}
		attacker, ok := st.Lookup(e.AttackerID)
		if !ok {
			continue
		}
		target, ok := st.Lookup(e.TargetID)
		if !ok {
			continue
		}
		return &domain.KeyPlay{
			Attacker:       attacker,
			Target:         target,
			Text:           e.Text,
			AttackerMissed: e.Outcome == domain.OutcomeMiss,
			Swap:           rnd.Float64() < KeyPlaySwapChance,
		}
	}
	return nil
}
