package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockbox/backend/internal/domain"
)

// InventoryService handles the plain CRUD operations on inventory lists.
// None of them need the AI service.
type InventoryService struct {
	repo domain.InventoryRepository
}

func NewInventoryService(repo domain.InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

func (s *InventoryService) CreateList(ctx context.Context, list *domain.InventoryList) (*domain.InventoryList, error) {
	if list == nil {
		return nil, domain.ErrInvalidRequest
	}
	items, err := cleanItems(list.Items)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateList(ctx, &domain.InventoryList{
		Name:    strings.TrimSpace(list.Name),
		Purpose: strings.TrimSpace(list.Purpose),
		Items:   items,
	})
}

func (s *InventoryService) GetList(ctx context.Context, id int64) (*domain.InventoryList, error) {
	return s.repo.GetList(ctx, id)
}

func (s *InventoryService) ListLists(ctx context.Context) ([]domain.InventoryList, error) {
	return s.repo.ListLists(ctx)
}

func (s *InventoryService) AddItems(ctx context.Context, listID int64, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	cleaned, err := cleanItems(items)
	if err != nil {
		return nil, err
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrInvalidRequest)
	}
	return s.repo.AddItems(ctx, listID, cleaned)
}

func (s *InventoryService) ShoppingEntries(ctx context.Context, listID int64) ([]domain.ShoppingListEntry, error) {
	return s.repo.ListShoppingEntries(ctx, listID)
}

func cleanItems(items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	out := make([]domain.InventoryItem, 0, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", domain.ErrInvalidRequest, i)
		}
		item.Quantity = strings.TrimSpace(item.Quantity)
		item.Brand = strings.TrimSpace(item.Brand)
		item.ID, item.ListID = 0, 0
		out = append(out, item)
	}
	return out, nil
}
