package models

// Fixed Valorant catalogs the bot offers during scrim setup. The selection
// UI lives in the gateway; the core only validates against these.

type MatchFormat string

const (
	BestOfOne   MatchFormat = "bo1"
	BestOfThree MatchFormat = "bo3"
)

// MaxMaps is the number of maps a scrim of this format may carry.
func (f MatchFormat) MaxMaps() int {
	if f == BestOfThree {
		return 3
	}
	return 1
}

func (f MatchFormat) Valid() bool {
	return f == BestOfOne || f == BestOfThree
}

var Maps = []string{
	"Ascent", "Bind", "Haven", "Icebox", "Split", "Lotus", "Breeze",
}

var Ranks = []string{
	"Radiant", "Immortal", "Ascendant", "Diamond", "Platinum", "Gold", "Silver", "Bronze", "Iron",
}

var Servers = []string{"Dubai", "Bahrain"}

func ValidMap(name string) bool {
	return contains(Maps, name)
}

func ValidRank(name string) bool {
	return contains(Ranks, name)
}

func ValidServer(name string) bool {
	return contains(Servers, name)
}

func contains(catalog []string, name string) bool {
	for _, entry := range catalog {
		if entry == name {
			return true
		}
	}
	return false
}
