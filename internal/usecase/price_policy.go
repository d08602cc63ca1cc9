package usecase

import (
	"log"
	"math"
	"strings"

	"github.com/stockbox/backend/internal/domain"
)

// reconcilePrices applies the per-field policy to a decoded comparison:
//
//	missing store price       -> null
//	item missing from output  -> entry with every store null
//	items not requested       -> dropped
//	missing coupons           -> empty list
//	cheapest store missing or
//	outside the store set     -> lowest local basket sum, RecommendationAdjusted
//
// Returned estimates are paired with requested items by exact text, then by
// item name, then by token similarity. Each estimate is used at most once.
func reconcilePrices(items, stores []string, got domain.PriceComparison) domain.PriceComparison {
	matches := matchEstimates(items, got.PriceEstimates)

	out := domain.PriceComparison{
		PriceEstimates:  make([]domain.PriceEstimate, 0, len(items)),
		CouponsAndDeals: got.CouponsAndDeals,
	}
	if out.CouponsAndDeals == nil {
		out.CouponsAndDeals = []domain.CouponDeal{}
	}

	for i, item := range items {
		var est domain.PriceEstimate
		if j := matches[i]; j >= 0 {
			est = got.PriceEstimates[j]
		} else {
			log.Printf("[PIPELINE] No price estimate returned for %q, using nulls", item)
		}

		prices := make(map[string]*float64, len(stores))
		for _, store := range stores {
			if v, known := lookupPrice(est.Prices, store); known {
				prices[store] = &v
			} else {
				prices[store] = nil
			}
		}
		out.PriceEstimates = append(out.PriceEstimates, domain.PriceEstimate{Item: item, Prices: prices})
	}

	if store, ok := canonicalStore(stores, got.CheapestStoreRecommendation.Store); ok {
		out.CheapestStoreRecommendation = domain.CheapestStoreRecommendation{
			Store:              store,
			EstimatedTotalCost: got.CheapestStoreRecommendation.EstimatedTotalCost,
		}
		return out
	}

	log.Printf("[PIPELINE] Cheapest store %q is not in the store set, recomputing locally",
		got.CheapestStoreRecommendation.Store)
	if rec, ok := cheapestBySum(stores, out.PriceEstimates); ok {
		out.CheapestStoreRecommendation = rec
		out.RecommendationAdjusted = true
	}
	return out
}

// cheapestBySum prefers the store with the most known prices, then the lowest
// sum. ok is false when no store has any price.
func cheapestBySum(stores []string, estimates []domain.PriceEstimate) (domain.CheapestStoreRecommendation, bool) {
	var (
		best      domain.CheapestStoreRecommendation
		bestCount int
		found     bool
	)
	for _, store := range stores {
		var sum float64
		count := 0
		for _, est := range estimates {
			if v, ok := est.Price(store); ok {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}
		if !found || count > bestCount || (count == bestCount && sum < best.EstimatedTotalCost) {
			best = domain.CheapestStoreRecommendation{Store: store, EstimatedTotalCost: math.Round(sum*100) / 100}
			bestCount = count
			found = true
		}
	}
	return best, found
}

func canonicalStore(stores []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, s := range stores {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

func lookupPrice(prices map[string]*float64, store string) (float64, bool) {
	if v := prices[store]; v != nil {
		return *v, true
	}
	for k, v := range prices {
		if strings.EqualFold(strings.TrimSpace(k), store) && v != nil {
			return *v, true
		}
	}
	return 0, false
}

// matchEstimates returns, for each item, the index of its estimate or -1.
func matchEstimates(items []string, estimates []domain.PriceEstimate) []int {
	matches := make([]int, len(items))
	taken := make([]bool, len(estimates))
	names := make([]string, len(estimates))
	for j, est := range estimates {
		names[j] = est.Item
	}

	exact := func(key func(string) string) {
		for i, item := range items {
			if matches[i] >= 0 {
				continue
			}
			for j, name := range names {
				if !taken[j] && key(name) == key(item) {
					matches[i] = j
					taken[j] = true
					break
				}
			}
		}
	}

	for i := range matches {
		matches[i] = -1
	}
	exact(itemKey)
	exact(func(s string) string { return itemKey(domain.ParseGroceryItem(s).Name) })

	matcher := newItemMatcher()
	for i, item := range items {
		if matches[i] >= 0 {
			continue
		}
		if j := matcher.best(item, names, taken); j >= 0 {
			log.Printf("[PIPELINE] Matched price estimate %q to %q", names[j], item)
			matches[i] = j
			taken[j] = true
		}
	}
	return matches
}

func itemKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
