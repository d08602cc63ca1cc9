package usecase

import (
	"regexp"
	"strings"
)

var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Token weights for scoring
const (
	weightStaple      = 3.0 // core grocery terms (milk, rice, tuna)
	weightDescriptive = 2.0 // variety terms (whole, skim, organic)
	weightDefault     = 1.0
	fuzzyWeightFactor = 0.8 // fuzzy matches get 80% of normal weight
)

// stapleTerms are the grocery nouns that decide whether two names are the same item
var stapleTerms = map[string]bool{
	"milk": true, "eggs": true, "egg": true, "cheese": true, "yogurt": true, "butter": true,
	"bread": true, "rice": true, "pasta": true, "spaghetti": true, "fusilli": true, "rotini": true,
	"cereal": true, "oats": true, "flour": true, "tortillas": true, "crackers": true,
	"chicken": true, "beef": true, "pork": true, "tuna": true, "salmon": true, "meat": true,
	"beans": true, "tomatoes": true, "potatoes": true, "onions": true, "apples": true, "bananas": true,
	"coffee": true, "tea": true, "juice": true, "soda": true, "water": true,
	"oil": true, "sugar": true, "salt": true, "soup": true, "sauce": true,
	"ketchup": true, "salsa": true, "mustard": true, "mayonnaise": true, "honey": true,
}

// descriptiveTerms narrow an item down without changing what it is
var descriptiveTerms = map[string]bool{
	"whole": true, "skim": true, "reduced": true, "fat": true, "low": true, "nonfat": true,
	"organic": true, "fresh": true, "frozen": true, "canned": true, "dried": true,
	"ground": true, "green": true, "white": true, "brown": true, "basmati": true, "jasmine": true,
	"olive": true, "vegetable": true, "baked": true, "stewed": true, "chunky": true,
	"unsalted": true, "salted": true, "boneless": true, "skinless": true, "lean": true,
}

// noiseWords are units, sizes and packaging that say nothing about the item
var noiseWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "of": true, "for": true, "with": true,
	"oz": true, "fl": true, "lb": true, "lbs": true, "ml": true, "gal": true, "qt": true,
	"gallon": true, "gallons": true, "galons": true, "quart": true, "pint": true, "liter": true, "liters": true,
	"gram": true, "grams": true, "kg": true, "ounce": true, "ounces": true,
	"dozen": true, "large": true, "medium": true, "small": true, "grade": true,
	"pack": true, "packs": true, "count": true, "ct": true, "pk": true,
	"box": true, "boxes": true, "bag": true, "bags": true, "bottle": true, "bottles": true,
	"can": true, "cans": true, "carton": true, "container": true, "containers": true,
	"jar": true, "jars": true, "loaf": true, "each": true, "value": true, "family": true, "size": true,
}

// itemMatcher pairs model-returned item names with the requested items when
// the model rewrites them, e.g. "Whole Milk, 1 gal" for "milk 1 gallon".
type itemMatcher struct {
	minScore        float64
	maxEditDistance int
}

func newItemMatcher() itemMatcher {
	return itemMatcher{minScore: 0.5, maxEditDistance: 1}
}

// score returns a weighted Dice similarity in [0, 1].
func (m itemMatcher) score(a, b string) float64 {
	tokensA, tokensB := tokenize(a), tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var matched, total float64
	for _, t := range tokensA {
		total += tokenWeight(t)
	}
	for _, t := range tokensB {
		total += tokenWeight(t)
	}

	used := make([]bool, len(tokensB))
	for _, ta := range tokensA {
		best := -1
		var bestWeight float64
		for j, tb := range tokensB {
			if used[j] {
				continue
			}
			w := 0.0
			switch {
			case ta == tb:
				w = tokenWeight(ta)
			case fuzzyTokenMatch(ta, tb, m.maxEditDistance):
				w = max(tokenWeight(ta), tokenWeight(tb)) * fuzzyWeightFactor
			}
			if w > bestWeight {
				best, bestWeight = j, w
			}
		}
		if best >= 0 {
			used[best] = true
			matched += bestWeight
		}
	}
	return 2 * matched / total
}

// best returns the index of the highest scoring candidate not yet taken, or -1
// when none reaches minScore.
func (m itemMatcher) best(item string, candidates []string, taken []bool) int {
	best, bestScore := -1, m.minScore
	for i, c := range candidates {
		if taken[i] {
			continue
		}
		if s := m.score(item, c); s >= bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// tokenize lowercases s, drops punctuation, numbers, single letters and noise
// words.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || noiseWords[word] || startsWithDigit(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func tokenWeight(t string) float64 {
	switch {
	case stapleTerms[t]:
		return weightStaple
	case descriptiveTerms[t]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// startsWithDigit catches counts and sizes such as "12", "5kg", "2x".
func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// fuzzyTokenMatch checks if two tokens are within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Short tokens give too many false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
