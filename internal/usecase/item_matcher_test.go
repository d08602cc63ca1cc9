package usecase

import (
	"testing"

	"github.com/stockbox/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		input string
		want  []string
	}{
		{"milk 1 gallon", []string{"milk"}},
		{"Whole Milk, 1 gal", []string{"whole", "milk"}},
		{"large eggs dozen", []string{"eggs"}},
		{"Eggs, Grade A, 12 ct", []string{"eggs"}},
		{"basmati rice 5kg", []string{"basmati", "rice"}},
		{"Milk 3 galons", []string{"milk"}},
		{"12 oz", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, tokenize(tc.input))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	testCases := []struct {
		s1   string
		s2   string
		want int
	}{
		{"", "", 0},
		{"a", "", 1},
		{"", "a", 1},
		{"rice", "rice", 0},
		{"rice", "ricr", 1},        // substitution
		{"tuna", "tunas", 1},       // insertion
		{"beans", "bean", 1},       // deletion
		{"kitten", "sitting", 3},   // classic example
		{"milk", "mlik", 2},        // transposition (2 edits)
		{"tomatoes", "tomatos", 1}, // missing letter
	}

	for _, tc := range testCases {
		t.Run(tc.s1+"_"+tc.s2, func(t *testing.T) {
			if got := levenshteinDistance(tc.s1, tc.s2); got != tc.want {
				t.Errorf("levenshteinDistance(%q, %q) = %v, want %v", tc.s1, tc.s2, got, tc.want)
			}
		})
	}
}

func TestFuzzyTokenMatch(t *testing.T) {
	testCases := []struct {
		token1    string
		token2    string
		threshold int
		want      bool
	}{
		{"milk", "milk", 1, true},
		{"milk", "mlik", 1, false},
		{"tomatoes", "tomatos", 1, true},
		{"spaghetti", "spagheti", 1, true},
		{"spaghetti", "spagetti", 1, true},
		{"ketchup", "catsup", 1, false},
		{"oil", "oils", 1, false}, // too short for fuzzy
	}

	for _, tc := range testCases {
		t.Run(tc.token1+"_"+tc.token2, func(t *testing.T) {
			assert.Equal(t, tc.want, fuzzyTokenMatch(tc.token1, tc.token2, tc.threshold))
		})
	}
}

func TestItemMatcherScore(t *testing.T) {
	m := newItemMatcher()

	assert.InDelta(t, 1.0, m.score("milk 1 gallon", "Milk, 1 gal"), 1e-9)
	assert.InDelta(t, 0.75, m.score("milk 1 gallon", "Whole Milk, 1 gal"), 1e-9)
	assert.GreaterOrEqual(t, m.score("spaghetti 5 containers", "Spagheti pasta"), m.minScore)
	assert.Less(t, m.score("olive oil 2 bottles", "vegetable oil 1 bottle"), 1.0)
	assert.Zero(t, m.score("bread 1 loaf", "caviar 1 tin"))
	assert.Zero(t, m.score("12 oz", "milk"))
}

func TestItemMatcherBest(t *testing.T) {
	m := newItemMatcher()
	candidates := []string{"Vegetable Oil 48 oz", "Extra Virgin Olive Oil", "Ground Coffee"}

	taken := make([]bool, len(candidates))
	assert.Equal(t, 1, m.best("olive oil 2 bottles", candidates, taken))
	assert.Equal(t, 2, m.best("ground coffee 2 cans", candidates, taken))
	assert.Equal(t, -1, m.best("tuna 6 cans", candidates, taken))

	taken[1] = true
	assert.Equal(t, 0, m.best("olive oil 2 bottles", candidates, taken))
}

func TestReconcilePrices_RewrittenNames(t *testing.T) {
	items := []string{"milk 1 gallon", "large eggs dozen", "basmati rice 5kg"}
	got := domain.PriceComparison{
		PriceEstimates: []domain.PriceEstimate{
			{Item: "Eggs, Grade A, 12 ct", Prices: map[string]*float64{"Walmart": price(2.97)}},
			{Item: "Whole Milk, 1 gal", Prices: map[string]*float64{"Walmart": price(3.48)}},
			{Item: "Paper towels", Prices: map[string]*float64{"Walmart": price(9.99)}},
		},
		CheapestStoreRecommendation: domain.CheapestStoreRecommendation{Store: "Walmart", EstimatedTotalCost: 6.45},
	}

	out := reconcilePrices(items, testStores, got)

	require.Len(t, out.PriceEstimates, 3)
	v, ok := out.PriceEstimates[0].Price("Walmart")
	assert.True(t, ok)
	assert.Equal(t, 3.48, v)
	v, ok = out.PriceEstimates[1].Price("Walmart")
	assert.True(t, ok)
	assert.Equal(t, 2.97, v)
	_, ok = out.PriceEstimates[2].Price("Walmart")
	assert.False(t, ok)
}

func TestMatchEstimates_UsesEachEstimateOnce(t *testing.T) {
	estimates := []domain.PriceEstimate{{Item: "milk 1 gallon"}}

	assert.Equal(t, []int{0, -1}, matchEstimates([]string{"milk 1 gallon", "milk 2 gallons"}, estimates))
}
