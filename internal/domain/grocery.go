package domain

import (
	"strings"
	"unicode"
)

// GroceryItem is one extracted basket entry, e.g. name "milk", quantity "1 gallon".
type GroceryItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// String joins name and quantity the way the model writes them ("milk 1 gallon").
func (g GroceryItem) String() string {
	if g.Quantity == "" {
		return g.Name
	}
	return g.Name + " " + g.Quantity
}

// ParseGroceryItem splits free text at the first token that starts with a digit.
// Text without a numeric token is kept whole as the name.
func ParseGroceryItem(text string) GroceryItem {
	fields := strings.Fields(text)
	for i, f := range fields {
		if i == 0 {
			continue
		}
		if r := []rune(f)[0]; unicode.IsDigit(r) {
			return GroceryItem{
				Name:     strings.Join(fields[:i], " "),
				Quantity: strings.Join(fields[i:], " "),
			}
		}
	}
	return GroceryItem{Name: strings.Join(fields, " ")}
}

// ParseGroceryItems maps ParseGroceryItem over texts, dropping blank entries.
func ParseGroceryItems(texts []string) []GroceryItem {
	items := make([]GroceryItem, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		items = append(items, ParseGroceryItem(t))
	}
	return items
}

// ItemStrings renders items back into model-facing text.
func ItemStrings(items []GroceryItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out
}

// PriceEstimate holds one item's price per store. A nil price means unknown.
type PriceEstimate struct {
	Item   string              `json:"item"`
	Prices map[string]*float64 `json:"prices"`
}

// Price returns the known price at store.
func (p PriceEstimate) Price(store string) (float64, bool) {
	v, ok := p.Prices[store]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// CouponDeal is a coupon or weekly special the model found.
type CouponDeal struct {
	Store       string   `json:"store"`
	Description string   `json:"deal"`
	AppliesTo   []string `json:"applies_to_items"`
}

// CheapestStoreRecommendation names the cheapest store for a whole basket.
type CheapestStoreRecommendation struct {
	Store              string  `json:"store"`
	EstimatedTotalCost float64 `json:"estimated_total_cost"`
}

// PriceComparison is the envelope produced by the price stage.
type PriceComparison struct {
	PriceEstimates              []PriceEstimate             `json:"price_estimates"`
	CouponsAndDeals             []CouponDeal                `json:"coupons_and_deals"`
	CheapestStoreRecommendation CheapestStoreRecommendation `json:"cheapest_store_recommendation"`
	// RecommendationAdjusted is set when the model's pick was replaced locally.
	RecommendationAdjusted bool `json:"recommendation_adjusted,omitempty"`
}

// EmptyPriceComparison is the degraded result used when the price stage fails.
func EmptyPriceComparison() PriceComparison {
	return PriceComparison{
		PriceEstimates:  []PriceEstimate{},
		CouponsAndDeals: []CouponDeal{},
	}
}

// RestockEntry is free-form "item quantity" text, e.g. "milk 2 gallons".
type RestockEntry string

// Item decomposes the entry into name and quantity.
func (r RestockEntry) Item() GroceryItem {
	return ParseGroceryItem(string(r))
}

// RestockEntries converts plain strings into entries, dropping blanks.
func RestockEntries(texts []string) []RestockEntry {
	out := make([]RestockEntry, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, RestockEntry(t))
		}
	}
	return out
}

// PartyPlan is the party_plan task result.
type PartyPlan struct {
	PartyShoppingList []RestockEntry              `json:"party_shopping_list"`
	CheapestInfo      CheapestStoreRecommendation `json:"cheapest_info"`
}

// StockMatch is the stock_match task result.
type StockMatch struct {
	RestockList  []RestockEntry              `json:"restock_list"`
	CheapestInfo CheapestStoreRecommendation `json:"cheapest_info"`
}

// PlanItem is one line of a generated monthly plan.
type PlanItem struct {
	Item     string `json:"item"`
	Quantity string `json:"quantity"`
}

// ShoppingPlan is the create_plan task result.
type ShoppingPlan struct {
	ShoppingList []PlanItem `json:"shopping_list"`
	ListID       int64      `json:"list_id,omitempty"`
}
