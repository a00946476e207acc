// internal/award/location/matcher_test.go
package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Address
	}{
		{
			name: "all five levels",
			raw:  "Tower A, Moi Avenue, Central, Starehe, Nairobi",
			want: Address{Building: "Tower A", Street: "Moi Avenue", Ward: "Central", Subcounty: "Starehe", County: "Nairobi"},
		},
		{
			name: "trims and drops empty segments",
			raw:  "  Tower A ,, Moi Avenue ,  ",
			want: Address{Building: "Tower A", Street: "Moi Avenue"},
		},
		{
			name: "extra segments ignored",
			raw:  "a,b,c,d,e,f",
			want: Address{Building: "a", Street: "b", Ward: "c", Subcounty: "d", County: "e"},
		},
		{
			name: "empty",
			raw:  "",
			want: Address{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestScore_Tiers(t *testing.T) {
	const full = "Tower A, Moi Avenue, Central, Starehe, Nairobi"

	tests := []struct {
		name      string
		a, b      string
		wantScore float64
		wantTier  Tier
	}{
		{"identical strings", full, full, 1.0, TierExact},
		{"same street", full, "Tower B, Moi Avenue, Central, Starehe, Nairobi", 0.9, TierSameStreet},
		{"same ward", full, "Tower B, Kenyatta Avenue, Central, Starehe, Nairobi", 0.7, TierSameWard},
		{"same subcounty", full, "Tower B, Kenyatta Avenue, Pangani, Starehe, Nairobi", 0.5, TierSameSubcounty},
		{"same county", full, "Tower B, Kenyatta Avenue, Pangani, Kamukunji, Nairobi", 0.3, TierSameCounty},
		{"nothing shared", full, "Plot 9, Nyerere Road, Kizingo, Mvita, Mombasa", 0, TierNoMatch},
		{"case sensitive", full, "tower a, moi avenue, central, starehe, nairobi", 0, TierNoMatch},
		{"left empty", "", full, 0, TierNoLocation},
		{"right only commas", full, " , , ", 0, TierNoLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, tier := Score(tt.a, tt.b)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantTier, tier)
		})
	}
}

func TestScore_MostSpecificTierWins(t *testing.T) {
	// building and county both match; building is reported
	score, tier := Score("Tower A, X, Y, Z, Nairobi", "Tower A, P, Q, R, Nairobi")
	assert.Equal(t, 1.0, score)
	assert.Equal(t, TierExact, tier)
}

func TestScore_IdenticalAlwaysExact(t *testing.T) {
	for _, raw := range []string{"Nairobi", "Kasarani, Nairobi", "a, b, c", " x ,y "} {
		_, tier := Score(raw, raw)
		assert.Equal(t, TierExact, tier, raw)
	}
}

func TestTierScoresAreOrdered(t *testing.T) {
	prev := 2.0
	for i := 0; i < levelCount; i++ {
		assert.Less(t, tierByLevel[i].score, prev)
		prev = tierByLevel[i].score
	}
	assert.Greater(t, prev, 0.0)
}
