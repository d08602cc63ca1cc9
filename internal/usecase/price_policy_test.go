package usecase

import (
	"testing"

	"github.com/stockbox/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func TestReconcilePrices_NullExactKeyFallsBackToCaseFolded(t *testing.T) {
	items := []string{"milk 1 gallon"}
	got := domain.PriceComparison{
		PriceEstimates: []domain.PriceEstimate{
			{Item: "milk 1 gallon", Prices: map[string]*float64{"Walmart": nil, "walmart": price(3.5)}},
		},
		CheapestStoreRecommendation: domain.CheapestStoreRecommendation{Store: "Walmart", EstimatedTotalCost: 3.5},
	}

	out := reconcilePrices(items, testStores, got)

	v, ok := out.PriceEstimates[0].Price("Walmart")
	assert.True(t, ok)
	assert.Equal(t, 3.5, v)
}

func TestReconcilePrices_FillsMissing(t *testing.T) {
	items := []string{"milk 1 gallon", "eggs 1 dozen", "bread 1 loaf"}
	got := domain.PriceComparison{
		PriceEstimates: []domain.PriceEstimate{
			{Item: "Milk 1 Gallon", Prices: map[string]*float64{"Walmart": price(3.48), "Costco": price(2.99)}},
			{Item: "eggs", Prices: map[string]*float64{"food lion": price(3.19)}},
			{Item: "caviar 1 tin", Prices: map[string]*float64{"Walmart": price(99)}},
		},
		CheapestStoreRecommendation: domain.CheapestStoreRecommendation{Store: "walmart", EstimatedTotalCost: 3.48},
	}

	out := reconcilePrices(items, testStores, got)

	require.Len(t, out.PriceEstimates, len(items))
	for i, est := range out.PriceEstimates {
		assert.Equal(t, items[i], est.Item)
		assert.Len(t, est.Prices, len(testStores))
		for _, store := range testStores {
			_, ok := est.Prices[store]
			assert.True(t, ok)
		}
	}

	v, ok := out.PriceEstimates[0].Price("Walmart")
	assert.True(t, ok)
	assert.Equal(t, 3.48, v)
	assert.Nil(t, out.PriceEstimates[0].Prices["Food Lion"])

	v, ok = out.PriceEstimates[1].Price("Food Lion")
	assert.True(t, ok)
	assert.Equal(t, 3.19, v)

	for _, store := range testStores {
		assert.Nil(t, out.PriceEstimates[2].Prices[store])
	}

	assert.NotNil(t, out.CouponsAndDeals)
	assert.Empty(t, out.CouponsAndDeals)
	assert.Equal(t, "Walmart", out.CheapestStoreRecommendation.Store)
	assert.False(t, out.RecommendationAdjusted)
}

func TestReconcilePrices_InvalidCheapestStore(t *testing.T) {
	items := []string{"milk 1 gallon", "eggs 1 dozen"}
	got := domain.PriceComparison{
		PriceEstimates: []domain.PriceEstimate{
			{Item: "milk 1 gallon", Prices: map[string]*float64{"Walmart": price(3.48), "Food Lion": price(3.79), "Harris Teeter": price(4.29)}},
			{Item: "eggs 1 dozen", Prices: map[string]*float64{"Walmart": price(2.97), "Food Lion": price(2.19), "Harris Teeter": price(3.49)}},
		},
		CheapestStoreRecommendation: domain.CheapestStoreRecommendation{Store: "Costco", EstimatedTotalCost: 5.00},
	}

	out := reconcilePrices(items, testStores, got)

	assert.True(t, out.RecommendationAdjusted)
	assert.Equal(t, "Food Lion", out.CheapestStoreRecommendation.Store)
	assert.Equal(t, 5.98, out.CheapestStoreRecommendation.EstimatedTotalCost)
}

func TestReconcilePrices_MissingCheapestPrefersCompleteBaskets(t *testing.T) {
	items := []string{"milk 1 gallon", "eggs 1 dozen"}
	got := domain.PriceComparison{
		PriceEstimates: []domain.PriceEstimate{
			{Item: "milk 1 gallon", Prices: map[string]*float64{"Walmart": price(3.48), "Food Lion": price(1.00)}},
			{Item: "eggs 1 dozen", Prices: map[string]*float64{"Walmart": price(2.97)}},
		},
	}

	out := reconcilePrices(items, testStores, got)

	assert.True(t, out.RecommendationAdjusted)
	assert.Equal(t, "Walmart", out.CheapestStoreRecommendation.Store)
	assert.Equal(t, 6.45, out.CheapestStoreRecommendation.EstimatedTotalCost)
}

func TestReconcilePrices_NoPricesAtAll(t *testing.T) {
	out := reconcilePrices([]string{"milk"}, testStores, domain.PriceComparison{})

	assert.False(t, out.RecommendationAdjusted)
	assert.Empty(t, out.CheapestStoreRecommendation.Store)
	require.Len(t, out.PriceEstimates, 1)
	assert.Len(t, out.PriceEstimates[0].Prices, 3)
}
