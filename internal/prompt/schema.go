package prompt

// ResponseSchema returns the Gemini responseSchema constraining task output,
// or nil for tasks answered as an assignment line.
func ResponseSchema(task Task, stores []string) map[string]any {
	switch task {
	case TaskPriceCompare:
		return PriceComparisonSchema(stores)
	case TaskStockMatch:
		return listWithCheapestSchema("restock_list")
	case TaskPartyPlan:
		return listWithCheapestSchema("party_shopping_list")
	case TaskCreatePlan:
		return object(map[string]any{
			"shopping_list": array(object(map[string]any{
				"item":     str(),
				"quantity": str(),
			}, "item", "quantity")),
		}, "shopping_list")
	default:
		return nil
	}
}

// PriceComparisonSchema requires a nullable price for every store.
func PriceComparisonSchema(stores []string) map[string]any {
	prices := make(map[string]any, len(stores))
	for _, store := range stores {
		prices[store] = nullableNumber()
	}

	return object(map[string]any{
		"price_estimates": array(object(map[string]any{
			"item":   str(),
			"prices": object(prices, stores...),
		}, "item", "prices")),
		"coupons_and_deals": array(object(map[string]any{
			"store":            str(),
			"deal":             str(),
			"applies_to_items": array(str()),
		}, "store", "deal")),
		"cheapest_store_recommendation": cheapestSchema(stores),
	}, "price_estimates", "coupons_and_deals", "cheapest_store_recommendation")
}

func listWithCheapestSchema(key string) map[string]any {
	return object(map[string]any{
		key:             array(str()),
		"cheapest_info": cheapestSchema(nil),
	}, key, "cheapest_info")
}

func cheapestSchema(stores []string) map[string]any {
	store := str()
	if len(stores) > 0 {
		store["enum"] = append([]string(nil), stores...)
	}
	return object(map[string]any{
		"store":                store,
		"estimated_total_cost": nullableNumber(),
	}, "store", "estimated_total_cost")
}

func object(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "OBJECT", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "ARRAY", "items": items}
}

func str() map[string]any {
	return map[string]any{"type": "STRING"}
}

func nullableNumber() map[string]any {
	return map[string]any{"type": "NUMBER", "nullable": true}
}
