// Package store persists inventory lists and shopping entries.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stockbox/backend/internal/domain"
)

// MemoryRepository is a thread-safe in-memory InventoryRepository.
// Values are copied in and out so callers never share state with the store.
type MemoryRepository struct {
	lists   map[int64]*domain.InventoryList
	entries map[int64][]domain.ShoppingListEntry
	mutex   sync.RWMutex

	nextListID  int64
	nextItemID  int64
	nextEntryID int64
	now         func() time.Time
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		lists:   make(map[int64]*domain.InventoryList),
		entries: make(map[int64][]domain.ShoppingListEntry),
		now:     time.Now,
	}
}

// CreateList stores list and its items, assigning ids.
func (r *MemoryRepository) CreateList(ctx context.Context, list *domain.InventoryList) (*domain.InventoryList, error) {
	if strings.TrimSpace(list.Name) == "" {
		return nil, fmt.Errorf("%w: list name is required", domain.ErrInvalidRequest)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.nextListID++
	stored := &domain.InventoryList{
		ID:        r.nextListID,
		Name:      list.Name,
		Purpose:   list.Purpose,
		CreatedAt: r.now().UTC(),
		Items:     []domain.InventoryItem{},
	}
	stored.Items = append(stored.Items, r.assignItems(stored.ID, list.Items)...)
	r.lists[stored.ID] = stored

	return cloneList(stored), nil
}

// GetList returns the list with id, or domain.ErrListNotFound.
func (r *MemoryRepository) GetList(ctx context.Context, id int64) (*domain.InventoryList, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	list, ok := r.lists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrListNotFound, id)
	}
	return cloneList(list), nil
}

// ListLists returns every list ordered by id.
func (r *MemoryRepository) ListLists(ctx context.Context) ([]domain.InventoryList, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]domain.InventoryList, 0, len(r.lists))
	for _, list := range r.lists {
		out = append(out, *cloneList(list))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AddItems appends items to an existing list.
func (r *MemoryRepository) AddItems(ctx context.Context, listID int64, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	list, ok := r.lists[listID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrListNotFound, listID)
	}
	added := r.assignItems(listID, items)
	list.Items = append(list.Items, added...)

	return append([]domain.InventoryItem(nil), added...), nil
}

// SaveShoppingEntries stores entries; every referenced list must exist.
func (r *MemoryRepository) SaveShoppingEntries(ctx context.Context, entries []domain.ShoppingListEntry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, e := range entries {
		if _, ok := r.lists[e.ListID]; !ok {
			return fmt.Errorf("%w: %d", domain.ErrListNotFound, e.ListID)
		}
	}

	now := r.now().UTC()
	for _, e := range entries {
		r.nextEntryID++
		e.ID = r.nextEntryID
		e.CreatedAt = now
		r.entries[e.ListID] = append(r.entries[e.ListID], e)
	}
	return nil
}

// ListShoppingEntries returns the entries saved for listID, oldest first.
func (r *MemoryRepository) ListShoppingEntries(ctx context.Context, listID int64) ([]domain.ShoppingListEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if _, ok := r.lists[listID]; !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrListNotFound, listID)
	}
	return append([]domain.ShoppingListEntry{}, r.entries[listID]...), nil
}

// Size returns the number of stored lists (for debugging/monitoring)
func (r *MemoryRepository) Size() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.lists)
}

// assignItems must be called with the write lock held.
func (r *MemoryRepository) assignItems(listID int64, items []domain.InventoryItem) []domain.InventoryItem {
	out := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		r.nextItemID++
		item.ID = r.nextItemID
		item.ListID = listID
		out = append(out, item)
	}
	return out
}

func cloneList(l *domain.InventoryList) *domain.InventoryList {
	c := *l
	c.Items = append([]domain.InventoryItem{}, l.Items...)
	return &c
}
