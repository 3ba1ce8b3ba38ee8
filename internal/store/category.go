package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/slatecms/apiserver/types"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	const query = `
		SELECT id, name, slug, description, created_at
		FROM categories
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []types.Category
	for rows.Next() {
		var cat types.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Get(ctx context.Context, id uuid.UUID) (types.Category, error) {
	const query = `
		SELECT id, name, slug, description, created_at
		FROM categories
		WHERE id = $1`
	var cat types.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return cat, nil
}

// SlugExists reports whether any category already uses slug.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat types.Category) (types.Category, error) {
	cat.CreatedAt = time.Now()

	const query = `
		INSERT INTO categories (name, slug, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, cat.Name, cat.Slug, cat.Description, cat.CreatedAt).Scan(&cat.ID)
	if err != nil {
		if isUniqueViolation(err, "categories_slug_key") {
			return types.Category{}, ErrConflict
		}
		return types.Category{}, err
	}
	return cat, nil
}

// Delete removes a category. Sections that reference it keep existing;
// their category reference is nulled at the database level.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM categories WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
