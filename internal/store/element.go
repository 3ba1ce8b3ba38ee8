package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/slatecms/apiserver/types"
)

const elementColumns = `id, section_id, type, x, y, width, height, z_index, content, image_key, style, created_at, updated_at`

// ElementRepository handles persistence for canvas elements.
type ElementRepository struct {
	db *sql.DB
}

func NewElementRepository(db *sql.DB) *ElementRepository {
	return &ElementRepository{db: db}
}

// ListBySection returns elements in paint order: z_index ascending,
// ties broken by creation time.
func (r *ElementRepository) ListBySection(ctx context.Context, sectionID uuid.UUID) ([]types.Element, error) {
	const query = `
		SELECT ` + elementColumns + `
		FROM elements
		WHERE section_id = $1
		ORDER BY z_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elements []types.Element
	for rows.Next() {
		element, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return elements, rows.Err()
}

func (r *ElementRepository) Get(ctx context.Context, id uuid.UUID) (types.Element, error) {
	const query = `SELECT ` + elementColumns + ` FROM elements WHERE id = $1`
	element, err := scanElement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Element{}, ErrNotFound
		}
		return types.Element{}, err
	}
	return element, nil
}

func (r *ElementRepository) Create(ctx context.Context, element types.Element) (types.Element, error) {
	now := time.Now()
	element.CreatedAt = now
	element.UpdatedAt = now

	style := element.Style
	if style == nil {
		style = map[string]any{}
	}
	styleJSON, err := json.Marshal(style)
	if err != nil {
		return types.Element{}, err
	}
	element.Style = style

	const query = `
		INSERT INTO elements (section_id, type, x, y, width, height, z_index, content, image_key, style, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		element.SectionID,
		element.Type,
		element.X,
		element.Y,
		element.Width,
		element.Height,
		element.ZIndex,
		element.Content,
		element.ImageKey,
		styleJSON,
		element.CreatedAt,
		element.UpdatedAt,
	).Scan(&element.ID); err != nil {
		return types.Element{}, err
	}
	return element, nil
}

func (r *ElementRepository) Update(ctx context.Context, element types.Element) (types.Element, error) {
	element.UpdatedAt = time.Now()

	styleJSON, err := json.Marshal(element.Style)
	if err != nil {
		return types.Element{}, err
	}

	const query = `
		UPDATE elements
		SET type = $1,
			x = $2,
			y = $3,
			width = $4,
			height = $5,
			z_index = $6,
			content = $7,
			image_key = $8,
			style = $9,
			updated_at = $10
		WHERE id = $11`
	result, err := r.db.ExecContext(
		ctx,
		query,
		element.Type,
		element.X,
		element.Y,
		element.Width,
		element.Height,
		element.ZIndex,
		element.Content,
		element.ImageKey,
		styleJSON,
		element.UpdatedAt,
		element.ID,
	)
	if err != nil {
		return types.Element{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Element{}, err
	}
	if affected == 0 {
		return types.Element{}, ErrNotFound
	}
	return element, nil
}

func (r *ElementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM elements WHERE id = $1`
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

func scanElement(row rowScanner) (types.Element, error) {
	var element types.Element
	var styleJSON []byte
	err := row.Scan(
		&element.ID,
		&element.SectionID,
		&element.Type,
		&element.X,
		&element.Y,
		&element.Width,
		&element.Height,
		&element.ZIndex,
		&element.Content,
		&element.ImageKey,
		&styleJSON,
		&element.CreatedAt,
		&element.UpdatedAt,
	)
	if err != nil {
		return types.Element{}, err
	}
	_ = json.Unmarshal(styleJSON, &element.Style)
	return element, nil
}
