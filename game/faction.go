package game

import (
	"fmt"
	"strings"
)

// Faction is an army colour. Values are the archive country ids.
type Faction int

const (
	Neutral         Faction = 0
	OrangeStar      Faction = 1
	BlueMoon        Faction = 2
	GreenEarth      Faction = 3
	YellowComet     Faction = 4
	BlackHole       Faction = 5
	RedFire         Faction = 6
	GreySky         Faction = 7
	BrownDesert     Faction = 8
	AmberBlaze      Faction = 9
	JadeSun         Faction = 10
	CobaltIce       Faction = 16
	PinkCosmos      Faction = 17
	TealGalaxy      Faction = 19
	PurpleLightning Faction = 20
	AcidRain        Faction = 21
	WhiteNova       Faction = 22
	AzureAsteroid   Faction = 23
	NoirEclipse     Faction = 24
	SilverClaw      Faction = 25
)

var factionCodes = map[Faction]string{
	Neutral:         "",
	OrangeStar:      "os",
	BlueMoon:        "bm",
	GreenEarth:      "ge",
	YellowComet:     "yc",
	BlackHole:       "bh",
	RedFire:         "rf",
	GreySky:         "gs",
	BrownDesert:     "bd",
	AmberBlaze:      "ab",
	JadeSun:         "js",
	CobaltIce:       "ci",
	PinkCosmos:      "pc",
	TealGalaxy:      "tg",
	PurpleLightning: "pl",
	AcidRain:        "ar",
	WhiteNova:       "wn",
	AzureAsteroid:   "aa",
	NoirEclipse:     "ne",
	SilverClaw:      "sc",
}

// Code is the two-letter country code, empty for Neutral.
func (f Faction) Code() string {
	return factionCodes[f]
}

func (f Faction) String() string {
	if f == Neutral {
		return "neutral"
	}
	if code, ok := factionCodes[f]; ok {
		return code
	}
	return fmt.Sprintf("faction(%d)", int(f))
}

// FactionByID validates an archive country id.
func FactionByID(id int) (Faction, bool) {
	f := Faction(id)
	_, ok := factionCodes[f]
	return f, ok && f != Neutral
}

// FactionByCode resolves a two-letter country code, case-insensitively.
func FactionByCode(code string) (Faction, bool) {
	code = strings.ToLower(code)
	for f, c := range factionCodes {
		if c == code && f != Neutral {
			return f, true
		}
	}
	return Neutral, false
}
