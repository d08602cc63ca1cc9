package domain

import "time"

// InventoryItem is one stocked or required item on an inventory list.
type InventoryItem struct {
	ID       int64  `json:"id"`
	ListID   int64  `json:"list_id"`
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity"`
	Brand    string `json:"brand,omitempty"`
}

// InventoryList groups items under a name and purpose (e.g. "pantry target").
type InventoryList struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name" binding:"required"`
	Purpose   string          `json:"purpose"`
	Items     []InventoryItem `json:"inventory_items"`
	CreatedAt time.Time       `json:"created_at"`
}

// ItemStrings renders the list's items as "name quantity" text.
func (l *InventoryList) ItemStrings() []string {
	out := make([]string, len(l.Items))
	for i, item := range l.Items {
		out[i] = GroceryItem{Name: item.Name, Quantity: item.Quantity}.String()
	}
	return out
}

// Shopping entry sources.
const (
	SourceStockMatch = "stock_match"
	SourceParty      = "party_plan"
	SourceRestock    = "restock"
)

// ShoppingListEntry is an item that needs buying for a list.
type ShoppingListEntry struct {
	ID             int64     `json:"id"`
	ListID         int64     `json:"list_id"`
	ItemName       string    `json:"item_name"`
	Brand          string    `json:"brand,omitempty"`
	QuantityNeeded string    `json:"quantity_needed"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
}

// ShoppingEntriesFrom converts restock entries into shopping entries for listID.
func ShoppingEntriesFrom(listID int64, source string, entries []RestockEntry) []ShoppingListEntry {
	out := make([]ShoppingListEntry, 0, len(entries))
	for _, e := range entries {
		item := e.Item()
		out = append(out, ShoppingListEntry{
			ListID:         listID,
			ItemName:       item.Name,
			QuantityNeeded: item.Quantity,
			Source:         source,
		})
	}
	return out
}
