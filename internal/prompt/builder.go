// Package prompt builds the system instruction and user content for each
// AI-backed task. Construction is pure: no I/O, no escaping of caller data.
package prompt

import (
	"fmt"
	"strings"

	"github.com/stockbox/backend/internal/domain"
)

// Task identifies which instruction template to use.
type Task string

const (
	TaskExtractItems Task = "extract_items"
	TaskPriceCompare Task = "price_compare"
	TaskRestock      Task = "restock"
	TaskPartyPlan    Task = "party_plan"
	TaskStockMatch   Task = "stock_match"
	TaskCreatePlan   Task = "create_plan"
)

// Assignment names the model must use for list-producing tasks.
const (
	UserItemsVar   = "user_items"
	RestockListVar = "restock_list"
)

// Payload is the caller data interpolated into a prompt. Only the fields a
// task reads need to be set.
type Payload struct {
	Text           string
	Items          []string
	Target         []string
	Stock          []string
	Stores         []string
	InventoryItems []domain.InventoryItem
	ListID         int64
	Image          *domain.Image
}

// Prompt is the built request for one task.
type Prompt struct {
	Task              Task
	SystemInstruction string
	UserContent       string
	Image             *domain.Image
}

// Request converts the prompt into a generation request using cfg.
func (p Prompt) Request(cfg domain.GenerationConfig) domain.GenerationRequest {
	return domain.GenerationRequest{
		SystemInstruction: p.SystemInstruction,
		Content:           p.UserContent,
		Image:             p.Image,
		Config:            cfg,
	}
}

// Build constructs the prompt for task from payload.
func Build(task Task, payload Payload) (Prompt, error) {
	p := Prompt{Task: task}

	switch task {
	case TaskExtractItems:
		p.SystemInstruction = extractInstruction
		p.UserContent = "Analyze the attached image and list the visible grocery items."
		if payload.Text != "" {
			p.UserContent += "\nNotes from the user: " + payload.Text
		}
		p.Image = payload.Image

	case TaskPriceCompare:
		if len(payload.Stores) == 0 {
			return Prompt{}, fmt.Errorf("%w: price comparison needs at least one store", domain.ErrInvalidRequest)
		}
		p.SystemInstruction = priceCompareInstruction
		p.UserContent = buildPriceCompareContent(payload.Items, payload.Stores)

	case TaskRestock:
		p.SystemInstruction = restockInstruction
		p.UserContent = fmt.Sprintf(
			"Inventory Target: %s\nActual Stock: %s\nGenerate %s based on rules.",
			QuoteList(payload.Target), QuoteList(payload.Stock), RestockListVar,
		)

	case TaskPartyPlan:
		p.SystemInstruction = partyPlanInstruction
		p.UserContent = fmt.Sprintf(
			"Inventory list (ID: %d):\n%s\n\nParty details:\n%s",
			payload.ListID, bulletList(payload.InventoryItems), payload.Text,
		)

	case TaskStockMatch:
		p.SystemInstruction = stockMatchInstruction
		p.UserContent = fmt.Sprintf(
			"Required items from inventory list (ID: %d):\n%s\n\n"+
				"Analyze the stock image and identify which items are missing or need restocking. "+
				"Format quantities like '3 gallons', '2 bags', '1 bottle', etc.",
			payload.ListID, bulletList(payload.InventoryItems),
		)
		if payload.Image == nil {
			p.UserContent += "\nNo stock image was provided; treat every required item as missing."
		}
		p.Image = payload.Image

	case TaskCreatePlan:
		p.SystemInstruction = createPlanInstruction
		p.UserContent = "User details:\n" + payload.Text + "\n\n" +
			`Return the result as a JSON object like this: { "shopping_list": [ {"item": "Milk", "quantity": "5L"} ] }`
		p.Image = payload.Image

	default:
		return Prompt{}, fmt.Errorf("%w: unknown task %q", domain.ErrInvalidRequest, task)
	}

	return p, nil
}

// QuoteList renders items as a bracketed list of single-quoted strings, the
// same literal form the model is asked to answer with.
func QuoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func bulletList(items []domain.InventoryItem) string {
	if len(items) == 0 {
		return "- (no items)"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		qty := item.Quantity
		if qty == "" {
			qty = "0"
		}
		lines[i] = fmt.Sprintf("- %s: %s", item.Name, qty)
	}
	return strings.Join(lines, "\n")
}

func buildPriceCompareContent(items, stores []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "1. Items to Price Compare: %s\n", QuoteList(items))
	fmt.Fprintf(&b, "2. Stores to Check: %s.\n\n", strings.Join(stores, ", "))
	b.WriteString("## Required JSON Structure:\n")
	b.WriteString("{\n  \"price_estimates\": [\n    {\n      \"item\": \"item name\",\n      \"prices\": {\n")
	for i, store := range stores {
		sep := ","
		if i == len(stores)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "        %q: price_in_usd%s\n", store, sep)
	}
	b.WriteString("      }\n    }\n  ],\n")
	b.WriteString("  \"coupons_and_deals\": [\n    {\"store\": \"Store Name\", \"deal\": \"coupon or weekly special\", \"applies_to_items\": [\"item name\"]}\n  ],\n")
	b.WriteString("  \"cheapest_store_recommendation\": {\"store\": \"store with the lowest basket total\", \"estimated_total_cost\": total_cost_after_coupons}\n}\n\n")
	b.WriteString("Include one price_estimates entry per item, and a price for every listed store. ")
	b.WriteString("If a price cannot be found, use null for that store.")
	return b.String()
}
