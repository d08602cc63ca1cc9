package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/stockbox/backend/internal/domain"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS inventory_lists (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	purpose    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS inventory_items (
	id       BIGSERIAL PRIMARY KEY,
	list_id  BIGINT NOT NULL REFERENCES inventory_lists(id) ON DELETE CASCADE,
	name     TEXT NOT NULL,
	quantity TEXT NOT NULL DEFAULT '',
	brand    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS shopping_list_entries (
	id              BIGSERIAL PRIMARY KEY,
	list_id         BIGINT NOT NULL REFERENCES inventory_lists(id) ON DELETE CASCADE,
	item_name       TEXT NOT NULL,
	brand           TEXT NOT NULL DEFAULT '',
	quantity_needed TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const (
	insertListQuery = `
		INSERT INTO inventory_lists (name, purpose)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	insertItemsQuery = `
		INSERT INTO inventory_items (list_id, name, quantity, brand)
		SELECT $1, t.name, t.quantity, t.brand
		FROM unnest($2::text[], $3::text[], $4::text[]) WITH ORDINALITY AS t(name, quantity, brand, ord)
		ORDER BY t.ord
		RETURNING id
	`
	getListQuery = `
		SELECT id, name, purpose, created_at
		FROM inventory_lists
		WHERE id = $1
	`
	listListsQuery = `
		SELECT id, name, purpose, created_at
		FROM inventory_lists
		ORDER BY id
	`
	listItemsQuery = `
		SELECT id, list_id, name, quantity, brand
		FROM inventory_items
		WHERE list_id = ANY($1::bigint[])
		ORDER BY id
	`
	listExistsQuery = `SELECT EXISTS (SELECT 1 FROM inventory_lists WHERE id = $1)`

	insertEntriesQuery = `
		INSERT INTO shopping_list_entries (list_id, item_name, brand, quantity_needed, source)
		SELECT t.list_id, t.item_name, t.brand, t.quantity_needed, t.source
		FROM unnest($1::bigint[], $2::text[], $3::text[], $4::text[], $5::text[])
			AS t(list_id, item_name, brand, quantity_needed, source)
	`
	listEntriesQuery = `
		SELECT id, list_id, item_name, brand, quantity_needed, source, created_at
		FROM shopping_list_entries
		WHERE list_id = $1
		ORDER BY id
	`
)

// OpenPostgres opens a pgx-backed *sql.DB, pings it and ensures the schema.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("database url is required for the postgres driver")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("[STORE] Connected to postgres")
	return db, nil
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PostgresRepository is an InventoryRepository backed by database/sql.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateList(ctx context.Context, list *domain.InventoryList) (*domain.InventoryList, error) {
	if strings.TrimSpace(list.Name) == "" {
		return nil, fmt.Errorf("%w: list name is required", domain.ErrInvalidRequest)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	defer tx.Rollback()

	out := &domain.InventoryList{Name: list.Name, Purpose: list.Purpose}
	if err := tx.QueryRowContext(ctx, insertListQuery, list.Name, list.Purpose).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	out.Items, err = insertItems(ctx, tx, out.ID, list.Items)
	if err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	log.Printf("[STORE] Created list %d with %d items", out.ID, len(out.Items))
	return out, nil
}

func (r *PostgresRepository) GetList(ctx context.Context, id int64) (*domain.InventoryList, error) {
	var list domain.InventoryList
	err := r.db.QueryRowContext(ctx, getListQuery, id).Scan(&list.ID, &list.Name, &list.Purpose, &list.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrListNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}

	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	list.Items = items[id]
	if list.Items == nil {
		list.Items = []domain.InventoryItem{}
	}
	return &list, nil
}

func (r *PostgresRepository) ListLists(ctx context.Context) ([]domain.InventoryList, error) {
	rows, err := r.db.QueryContext(ctx, listListsQuery)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	out := make([]domain.InventoryList, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var l domain.InventoryList
		if err := rows.Scan(&l.ID, &l.Name, &l.Purpose, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("list lists: %w", err)
		}
		out = append(out, l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []domain.InventoryItem{}
		}
	}
	return out, nil
}

func (r *PostgresRepository) AddItems(ctx context.Context, listID int64, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	if err := r.requireList(ctx, listID); err != nil {
		return nil, err
	}
	added, err := insertItems(ctx, r.db, listID, items)
	if err != nil {
		return nil, fmt.Errorf("add items: %w", err)
	}
	return added, nil
}

func (r *PostgresRepository) SaveShoppingEntries(ctx context.Context, entries []domain.ShoppingListEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var (
		listIDs    = make([]int64, len(entries))
		names      = make([]string, len(entries))
		brands     = make([]string, len(entries))
		quantities = make([]string, len(entries))
		sources    = make([]string, len(entries))
	)
	for i, e := range entries {
		listIDs[i] = e.ListID
		names[i] = e.ItemName
		brands[i] = e.Brand
		quantities[i] = e.QuantityNeeded
		sources[i] = e.Source
	}

	_, err := r.db.ExecContext(ctx, insertEntriesQuery,
		pq.Array(listIDs), pq.Array(names), pq.Array(brands), pq.Array(quantities), pq.Array(sources))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrListNotFound, err)
		}
		return fmt.Errorf("save shopping entries: %w", err)
	}
	log.Printf("[STORE] Saved %d shopping entries", len(entries))
	return nil
}

func (r *PostgresRepository) ListShoppingEntries(ctx context.Context, listID int64) ([]domain.ShoppingListEntry, error) {
	if err := r.requireList(ctx, listID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, listEntriesQuery, listID)
	if err != nil {
		return nil, fmt.Errorf("list shopping entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ShoppingListEntry, 0)
	for rows.Next() {
		var e domain.ShoppingListEntry
		if err := rows.Scan(&e.ID, &e.ListID, &e.ItemName, &e.Brand, &e.QuantityNeeded, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("list shopping entries: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) requireList(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, listExistsQuery, id).Scan(&exists); err != nil {
		return fmt.Errorf("check list %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %d", domain.ErrListNotFound, id)
	}
	return nil
}

func (r *PostgresRepository) itemsFor(ctx context.Context, ids []int64) (map[int64][]domain.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, listItemsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.InventoryItem)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.ListID, &item.Name, &item.Quantity, &item.Brand); err != nil {
			return nil, err
		}
		out[item.ListID] = append(out[item.ListID], item)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func insertItems(ctx context.Context, q queryer, listID int64, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	out := make([]domain.InventoryItem, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	names := make([]string, len(items))
	quantities := make([]string, len(items))
	brands := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
		quantities[i] = item.Quantity
		brands[i] = item.Brand
	}

	rows, err := q.QueryContext(ctx, insertItemsQuery, listID, pq.Array(names), pq.Array(quantities), pq.Array(brands))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if i >= len(items) {
			return nil, errors.New("insert items: more ids returned than rows inserted")
		}
		item := items[i]
		item.ListID = listID
		if err := rows.Scan(&item.ID); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// isForeignKeyViolation reports SQLSTATE 23503 (pgconn.PgError and pq.Error both expose it).
func isForeignKeyViolation(err error) bool {
	var coded interface{ SQLState() string }
	return errors.As(err, &coded) && coded.SQLState() == "23503"
}
