package game

// Combat tuning. Damage is integer, probabilities are per-action.
const (
	MaxHP = 100

	BiteChance     = 0.55 // else the action is a fight
	BiteMissChance = 0.15
	BiteDamageMin  = 8
	BiteDamageMax  = 18
	BleedChance    = 0.30 // applied on a landed bite
	BleedStackMin  = 2
	BleedStackMax  = 5

	FightMissChance = 0.12
	FightDamageMin  = 14
	FightDamageMax  = 28
	CritChance      = 0.15
	CritMultiplier  = 1.5 // integer-truncated

	KeyPlaySwapChance = 0.5
)
