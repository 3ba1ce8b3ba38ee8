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

// TemplateRepository handles persistence for templates.
type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) List(ctx context.Context, offset, limit int) ([]types.Template, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM templates`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, description, structure, theme, created_at, updated_at
		FROM templates
		ORDER BY created_at
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	templates := make([]types.Template, 0, limit)
	for rows.Next() {
		var tpl types.Template
		var structureJSON []byte
		if err := rows.Scan(
			&tpl.ID,
			&tpl.Name,
			&tpl.Description,
			&structureJSON,
			&tpl.Theme,
			&tpl.CreatedAt,
			&tpl.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal(structureJSON, &tpl.Structure)
		templates = append(templates, tpl)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return templates, total, nil
}

func (r *TemplateRepository) Get(ctx context.Context, id uuid.UUID) (types.Template, error) {
	const query = `
		SELECT id, name, description, structure, theme, created_at, updated_at
		FROM templates
		WHERE id = $1`
	var tpl types.Template
	var structureJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.Description,
		&structureJSON,
		&tpl.Theme,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Template{}, ErrNotFound
		}
		return types.Template{}, err
	}
	_ = json.Unmarshal(structureJSON, &tpl.Structure)
	return tpl, nil
}

func (r *TemplateRepository) Create(ctx context.Context, tpl types.Template) (types.Template, error) {
	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	structureJSON, err := json.Marshal(tpl.Structure)
	if err != nil {
		return types.Template{}, err
	}

	const query = `
		INSERT INTO templates (name, description, structure, theme, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		tpl.Name,
		tpl.Description,
		structureJSON,
		tpl.Theme,
		tpl.CreatedAt,
		tpl.UpdatedAt,
	).Scan(&tpl.ID); err != nil {
		return types.Template{}, err
	}
	return tpl, nil
}

func (r *TemplateRepository) Update(ctx context.Context, tpl types.Template) (types.Template, error) {
	tpl.UpdatedAt = time.Now()

	structureJSON, err := json.Marshal(tpl.Structure)
	if err != nil {
		return types.Template{}, err
	}

	const query = `
		UPDATE templates
		SET name = $1,
			description = $2,
			structure = $3,
			theme = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		tpl.Name,
		tpl.Description,
		structureJSON,
		tpl.Theme,
		tpl.UpdatedAt,
		tpl.ID,
	)
	if err != nil {
		return types.Template{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Template{}, err
	}
	if affected == 0 {
		return types.Template{}, ErrNotFound
	}
	return tpl, nil
}

// Delete removes a template. Pages created from it keep their sections;
// their template reference is nulled at the database level.
func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM templates WHERE id = $1`
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
