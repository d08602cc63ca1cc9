package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/normalize"
	"github.com/stockbox/backend/internal/prompt"
)

// PlanParty works out what to buy for a party from the list's inventory and
// saves the result as shopping entries for that list.
func (s *PipelineService) PlanParty(ctx context.Context, listID int64, partyPrompt string) (*domain.PartyPlan, error) {
	if strings.TrimSpace(partyPrompt) == "" {
		return nil, fmt.Errorf("%w: party_prompt is required", domain.ErrInvalidRequest)
	}
	list, err := s.repo.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, prompt.TaskPartyPlan, prompt.Payload{
		ListID:         list.ID,
		InventoryItems: list.Items,
		Text:           partyPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("party plan: %w", err)
	}

	var plan domain.PartyPlan
	if err := normalize.Decode(raw, normalize.ShapePartyPlan, &plan); err != nil {
		return nil, fmt.Errorf("party plan: %w", err)
	}
	plan.PartyShoppingList = cleanEntries(plan.PartyShoppingList)

	entries := domain.ShoppingEntriesFrom(list.ID, domain.SourceParty, plan.PartyShoppingList)
	if err := s.repo.SaveShoppingEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("party plan: save shopping entries: %w", err)
	}
	log.Printf("[PIPELINE] Party plan for list %d: %d items, cheapest %q", list.ID, len(entries), plan.CheapestInfo.Store)
	return &plan, nil
}

// MatchStock compares a stock photo with the list's required items and saves
// whatever is missing as shopping entries. A nil image treats every required
// item as missing.
func (s *PipelineService) MatchStock(ctx context.Context, image *domain.Image, listID int64) (*domain.StockMatch, error) {
	list, err := s.repo.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, prompt.TaskStockMatch, prompt.Payload{
		ListID:         list.ID,
		InventoryItems: list.Items,
		Image:          image,
	})
	if err != nil {
		return nil, fmt.Errorf("stock matching: %w", err)
	}

	var match domain.StockMatch
	if err := normalize.Decode(raw, normalize.ShapeRestock, &match); err != nil {
		return nil, fmt.Errorf("stock matching: %w", err)
	}
	match.RestockList = cleanEntries(match.RestockList)

	entries := domain.ShoppingEntriesFrom(list.ID, domain.SourceStockMatch, match.RestockList)
	if err := s.repo.SaveShoppingEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("stock matching: save shopping entries: %w", err)
	}
	log.Printf("[PIPELINE] Stock match for list %d: %d items missing", list.ID, len(entries))
	return &match, nil
}

// CreatePlan generates a monthly grocery plan from text and/or an image and
// stores it as a new inventory list.
func (s *PipelineService) CreatePlan(ctx context.Context, text string, image *domain.Image) (*domain.ShoppingPlan, error) {
	text = strings.TrimSpace(text)
	if text == "" && (image == nil || len(image.Data) == 0) {
		return nil, fmt.Errorf("%w: text or image is required", domain.ErrInvalidRequest)
	}

	raw, err := s.generate(ctx, prompt.TaskCreatePlan, prompt.Payload{Text: text, Image: image})
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	var plan domain.ShoppingPlan
	if err := normalize.Decode(raw, normalize.ShapeShoppingPlan, &plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	items := make([]domain.InventoryItem, 0, len(plan.ShoppingList))
	kept := make([]domain.PlanItem, 0, len(plan.ShoppingList))
	for _, p := range plan.ShoppingList {
		p.Item = strings.TrimSpace(p.Item)
		if p.Item == "" {
			continue
		}
		kept = append(kept, p)
		items = append(items, domain.InventoryItem{Name: p.Item, Quantity: strings.TrimSpace(p.Quantity)})
	}
	plan.ShoppingList = kept

	list, err := s.repo.CreateList(ctx, &domain.InventoryList{
		Name:    "Monthly plan " + s.now().Format("2006-01-02"),
		Purpose: summarize(text, 200),
		Items:   items,
	})
	if err != nil {
		return nil, fmt.Errorf("create plan: save list: %w", err)
	}
	plan.ListID = list.ID
	log.Printf("[PIPELINE] Created plan list %d with %d items", list.ID, len(items))
	return &plan, nil
}

func cleanEntries(entries []domain.RestockEntry) []domain.RestockEntry {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = string(e)
	}
	return domain.RestockEntries(texts)
}

func summarize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
