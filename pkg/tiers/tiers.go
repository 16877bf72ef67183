package tiers

import "github.com/shopspring/decimal"

// Tier is the named progression rank. Ordering is significant: multipliers
// strictly increase along the enumeration and a participant's effective
// tier never regresses except through a full unstake.
type Tier int

const (
	Tier_Virgen Tier = iota
	Tier_SizzlinNoob
	Tier_Flipstarter
	Tier_FlameJuggler
	Tier_Grilluminati
	Tier_StakeWizard
	Tier_HeavyEater
	Tier_GenesisOG
)

var AllTiers = []Tier{
	Tier_Virgen,
	Tier_SizzlinNoob,
	Tier_Flipstarter,
	Tier_FlameJuggler,
	Tier_Grilluminati,
	Tier_StakeWizard,
	Tier_HeavyEater,
	Tier_GenesisOG,
}

var tierNames = map[Tier]string{
	Tier_Virgen:       "VIRGEN",
	Tier_SizzlinNoob:  "Sizzlin' Noob",
	Tier_Flipstarter:  "Flipstarter",
	Tier_FlameJuggler: "Flame Juggler",
	Tier_Grilluminati: "Grilluminati",
	Tier_StakeWizard:  "Stake Wizard",
	Tier_HeavyEater:   "Heavy Eater",
	Tier_GenesisOG:    "Genesis OG",
}

var tierGrades = map[Tier]string{
	Tier_Virgen:       "None",
	Tier_SizzlinNoob:  "Normal",
	Tier_Flipstarter:  "Uncommon",
	Tier_FlameJuggler: "Rare",
	Tier_Grilluminati: "Epic",
	Tier_StakeWizard:  "Unique",
	Tier_HeavyEater:   "Legendary",
	Tier_GenesisOG:    "Genesis",
}

var tierMultipliers = map[Tier]decimal.Decimal{
	Tier_Virgen:       decimal.RequireFromString("0"),
	Tier_SizzlinNoob:  decimal.RequireFromString("1.0"),
	Tier_Flipstarter:  decimal.RequireFromString("1.1"),
	Tier_FlameJuggler: decimal.RequireFromString("1.25"),
	Tier_Grilluminati: decimal.RequireFromString("1.4"),
	Tier_StakeWizard:  decimal.RequireFromString("1.6"),
	Tier_HeavyEater:   decimal.RequireFromString("1.8"),
	Tier_GenesisOG:    decimal.RequireFromString("2.0"),
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "VIRGEN"
}

// Grade is the rarity label the display layer renders next to the tier.
func (t Tier) Grade() string {
	if grade, ok := tierGrades[t]; ok {
		return grade
	}
	return "None"
}

func (t Tier) Multiplier() decimal.Decimal {
	if m, ok := tierMultipliers[t]; ok {
		return m
	}
	return decimal.Zero
}

// TierFromGrade maps a display-layer grade string back to a Tier. Unknown
// grades (including the legacy "Jeeted" label) map to VIRGEN.
func TierFromGrade(grade string) Tier {
	for t, g := range tierGrades {
		if g == grade {
			return t
		}
	}
	return Tier_Virgen
}
