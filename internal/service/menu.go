package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"atlascoffee/internal/model"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

var Categories = []string{"Coffee", "Cold Brew", "Frappe", "Pastry", "Tea"}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type MenuService struct {
	db *sql.DB
}

func NewMenuService(db *sql.DB) *MenuService {
	return &MenuService{db: db}
}

func (s *MenuService) Create(ctx context.Context, item model.MenuItem) (*model.MenuItem, error) {
	if item.Name == "" {
		return nil, errors.New("name is required")
	}
	if !ValidCategory(item.Category) {
		return nil, fmt.Errorf("unknown category %q", item.Category)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (name, description, price, category, image, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, item.Name, item.Description, item.Price, item.Category, item.Image, item.Available)

	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}
	return &item, nil
}

func (s *MenuService) List(ctx context.Context) ([]model.MenuItem, error) {
	return s.list(ctx, `SELECT id, name, description, price, category, image, available, created_at, updated_at
		FROM menu_items ORDER BY category, name`)
}

func (s *MenuService) ListByCategory(ctx context.Context, category string) ([]model.MenuItem, error) {
	return s.list(ctx, `SELECT id, name, description, price, category, image, available, created_at, updated_at
		FROM menu_items WHERE category = $1 ORDER BY name`, category)
}

func (s *MenuService) list(ctx context.Context, query string, args ...any) ([]model.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Category, &m.Image, &m.Available, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return items, nil
}

// MenuPatch is a partial update; nil fields are left unchanged.
type MenuPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Available   *bool    `json:"available"`
}

func (s *MenuService) Update(ctx context.Context, id string, patch MenuPatch) (*model.MenuItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMenuItemNotFound
	}
	if patch.Category != nil && !ValidCategory(*patch.Category) {
		return nil, fmt.Errorf("unknown category %q", *patch.Category)
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Image != nil {
		add("image", *patch.Image)
	}
	if patch.Available != nil {
		add("available", *patch.Available)
	}

	query := fmt.Sprintf(`UPDATE menu_items SET %s WHERE id = $1
		RETURNING id, name, description, price, category, image, available, created_at, updated_at`,
		strings.Join(sets, ", "))

	var m model.MenuItem
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&m.ID, &m.Name, &m.Description, &m.Price, &m.Category, &m.Image, &m.Available, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	return &m, nil
}
