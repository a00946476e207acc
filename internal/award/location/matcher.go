// internal/award/location/matcher.go

// Package location scores how close two freeform addresses are.
package location

import "strings"

// Tier names the most specific level at which two addresses agree.
type Tier string

const (
	TierExact         Tier = "exact"
	TierSameStreet    Tier = "same_street"
	TierSameWard      Tier = "same_ward"
	TierSameSubcounty Tier = "same_subcounty"
	TierSameCounty    Tier = "same_county"
	TierNoMatch       Tier = "no_match"
	TierNoLocation    Tier = "no_location"
)

// Level positions, most specific first.
const (
	LevelBuilding = iota
	LevelStreet
	LevelWard
	LevelSubcounty
	LevelCounty
	levelCount
)

var tierByLevel = [levelCount]struct {
	tier  Tier
	score float64
}{
	LevelBuilding:  {TierExact, 1.0},
	LevelStreet:    {TierSameStreet, 0.9},
	LevelWard:      {TierSameWard, 0.7},
	LevelSubcounty: {TierSameSubcounty, 0.5},
	LevelCounty:    {TierSameCounty, 0.3},
}

// Address is a location split into its named levels. Missing levels are
// empty strings.
type Address struct {
	Building  string `json:"building,omitempty"`
	Street    string `json:"street,omitempty"`
	Ward      string `json:"ward,omitempty"`
	Subcounty string `json:"subcounty,omitempty"`
	County    string `json:"county,omitempty"`
}

func (a Address) level(i int) string {
	switch i {
	case LevelBuilding:
		return a.Building
	case LevelStreet:
		return a.Street
	case LevelWard:
		return a.Ward
	case LevelSubcounty:
		return a.Subcounty
	case LevelCounty:
		return a.County
	}
	return ""
}

// IsEmpty reports whether no level was parsed.
func (a Address) IsEmpty() bool {
	for i := 0; i < levelCount; i++ {
		if a.level(i) != "" {
			return false
		}
	}
	return true
}

// Parse splits "Building, Street, Ward, Subcounty, County" into levels.
// Segments are trimmed and empty ones dropped; the remaining segments fill
// the levels from the most specific end. Segments past the fifth are ignored.
func Parse(raw string) Address {
	var levels [levelCount]string
	n := 0
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n == levelCount {
			break
		}
		levels[n] = part
		n++
	}
	return Address{
		Building:  levels[LevelBuilding],
		Street:    levels[LevelStreet],
		Ward:      levels[LevelWard],
		Subcounty: levels[LevelSubcounty],
		County:    levels[LevelCounty],
	}
}

// Match is the result of comparing two locations.
type Match struct {
	Score float64 `json:"score"`
	Tier  Tier    `json:"tier"`
}

// Score compares two raw locations. Comparison is exact and case-sensitive.
func Score(a, b string) (float64, Tier) {
	m := Compare(Parse(a), Parse(b))
	return m.Score, m.Tier
}

// Compare returns the first level, most specific first, at which both
// addresses carry the same non-empty value.
func Compare(a, b Address) Match {
	if a.IsEmpty() || b.IsEmpty() {
		return Match{Score: 0, Tier: TierNoLocation}
	}
	for i := 0; i < levelCount; i++ {
		av, bv := a.level(i), b.level(i)
		if av != "" && av == bv {
			return Match{Score: tierByLevel[i].score, Tier: tierByLevel[i].tier}
		}
	}
	return Match{Score: 0, Tier: TierNoMatch}
}
