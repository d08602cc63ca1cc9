package normalize

import "github.com/kaptinlin/jsonschema"

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}

var compiler = jsonschema.NewCompiler()

// Shape is an expected top-level JSON object layout.
type Shape struct {
	Name         string
	RequiredKeys []string
	schema       *jsonschema.Schema
}

var (
	// ShapePriceComparison is the price_compare task output.
	ShapePriceComparison = Shape{
		Name:         "price_comparison",
		RequiredKeys: []string{"price_estimates", "coupons_and_deals", "cheapest_store_recommendation"},
		schema:       must(compiler.Compile([]byte(priceComparisonSchemaDocument))),
	}

	// ShapeRestock is the stock_match task output.
	ShapeRestock = Shape{
		Name:         "restock",
		RequiredKeys: []string{"restock_list", "cheapest_info"},
		schema:       must(compiler.Compile([]byte(restockSchemaDocument))),
	}

	// ShapePartyPlan is the party_plan task output.
	ShapePartyPlan = Shape{
		Name:         "party_plan",
		RequiredKeys: []string{"party_shopping_list", "cheapest_info"},
		schema:       must(compiler.Compile([]byte(partyPlanSchemaDocument))),
	}

	// ShapeShoppingPlan is the create_plan task output.
	ShapeShoppingPlan = Shape{
		Name:         "shopping_plan",
		RequiredKeys: []string{"shopping_list"},
		schema:       must(compiler.Compile([]byte(shoppingPlanSchemaDocument))),
	}
)

const priceComparisonSchemaDocument = `{
	"$id": "price_comparison.json",
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "PriceComparison",
	"type": "object",
	"required": ["price_estimates", "coupons_and_deals", "cheapest_store_recommendation"],
	"properties": {
		"price_estimates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["item"],
				"properties": {
					"item": {"type": "string"},
					"prices": {
						"type": "object",
						"additionalProperties": {"type": ["number", "null"]}
					}
				}
			}
		},
		"coupons_and_deals": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"store": {"type": "string"},
					"deal": {"type": "string"},
					"applies_to_items": {"type": "array", "items": {"type": "string"}}
				}
			}
		},
		"cheapest_store_recommendation": {
			"type": ["object", "null"],
			"properties": {
				"store": {"type": ["string", "null"]},
				"estimated_total_cost": {"type": ["number", "null"]}
			}
		}
	}
}`

const cheapestInfoSchema = `{
	"type": "object",
	"properties": {
		"store": {"type": ["string", "null"]},
		"estimated_total_cost": {"type": ["number", "null"]}
	}
}`

const restockSchemaDocument = `{
	"$id": "restock.json",
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "Restock",
	"type": "object",
	"required": ["restock_list", "cheapest_info"],
	"properties": {
		"restock_list": {"type": "array", "items": {"type": "string"}},
		"cheapest_info": ` + cheapestInfoSchema + `
	}
}`

const partyPlanSchemaDocument = `{
	"$id": "party_plan.json",
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "PartyPlan",
	"type": "object",
	"required": ["party_shopping_list", "cheapest_info"],
	"properties": {
		"party_shopping_list": {"type": "array", "items": {"type": "string"}},
		"cheapest_info": ` + cheapestInfoSchema + `
	}
}`

const shoppingPlanSchemaDocument = `{
	"$id": "shopping_plan.json",
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "ShoppingPlan",
	"type": "object",
	"required": ["shopping_list"],
	"properties": {
		"shopping_list": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["item"],
				"properties": {
					"item": {"type": "string"},
					"quantity": {"type": "string"}
				}
			}
		}
	}
}`
