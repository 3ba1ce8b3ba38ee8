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

const sectionColumns = `id, page_id, type, properties, theme_key, category_id, "order", image_key, created_at, updated_at`

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SectionRepository handles persistence for sections and enforces the
// per-page order uniqueness invariant at write time.
type SectionRepository struct {
	db *sql.DB
}

func NewSectionRepository(db *sql.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) ListByPage(ctx context.Context, pageID uuid.UUID) ([]types.Section, error) {
	const query = `
		SELECT ` + sectionColumns + `
		FROM sections
		WHERE page_id = $1
		ORDER BY "order"`
	rows, err := r.db.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []types.Section
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, rows.Err()
}

func (r *SectionRepository) Get(ctx context.Context, id uuid.UUID) (types.Section, error) {
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1`
	section, err := scanSection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Section{}, ErrNotFound
		}
		return types.Section{}, err
	}
	return section, nil
}

// Create inserts a section. With Order zero the next free position is
// computed as max(existing)+1 inside a serializable transaction; with an
// explicit Order the position must be free or ErrConflict is returned.
// A serialization conflict with a concurrent append is retried once.
func (r *SectionRepository) Create(ctx context.Context, section types.Section) (types.Section, error) {
	now := time.Now()
	section.CreatedAt = now
	section.UpdatedAt = now

	created, err := r.createOnce(ctx, section)
	if err != nil && (isSerializationFailure(err) || isUniqueViolation(err, "sections_page_id_order_key")) {
		created, err = r.createOnce(ctx, section)
	}
	if err != nil {
		if isSerializationFailure(err) || isUniqueViolation(err, "sections_page_id_order_key") {
			return types.Section{}, ErrConflict
		}
		return types.Section{}, err
	}
	return created, nil
}

func (r *SectionRepository) createOnce(ctx context.Context, section types.Section) (types.Section, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return types.Section{}, err
	}
	defer tx.Rollback()

	if section.Order == 0 {
		next, err := nextOrder(ctx, tx, section.PageID)
		if err != nil {
			return types.Section{}, err
		}
		section.Order = next
	} else {
		taken, err := orderTaken(ctx, tx, section.PageID, section.Order, uuid.Nil)
		if err != nil {
			return types.Section{}, err
		}
		if taken {
			return types.Section{}, ErrConflict
		}
	}

	created, err := insertSection(ctx, tx, section)
	if err != nil {
		return types.Section{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Section{}, err
	}
	return created, nil
}

// Update rewrites a section. The order check and the write share a
// serializable transaction; a serialization conflict with a concurrent
// write is retried once, like Create.
func (r *SectionRepository) Update(ctx context.Context, section types.Section) (types.Section, error) {
	section.UpdatedAt = time.Now()

	propsJSON, err := json.Marshal(section.Properties)
	if err != nil {
		return types.Section{}, err
	}

	err = r.updateOnce(ctx, section, propsJSON)
	if err != nil && isSerializationFailure(err) {
		err = r.updateOnce(ctx, section, propsJSON)
	}
	if err != nil {
		if isSerializationFailure(err) || isUniqueViolation(err, "sections_page_id_order_key") {
			return types.Section{}, ErrConflict
		}
		return types.Section{}, err
	}
	return section, nil
}

func (r *SectionRepository) updateOnce(ctx context.Context, section types.Section, propsJSON []byte) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	taken, err := orderTaken(ctx, tx, section.PageID, section.Order, section.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}

	const query = `
		UPDATE sections
		SET type = $1,
			properties = $2,
			theme_key = $3,
			category_id = $4,
			"order" = $5,
			image_key = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := tx.ExecContext(
		ctx,
		query,
		section.Type,
		propsJSON,
		section.ThemeKey,
		section.CategoryID,
		section.Order,
		section.ImageKey,
		section.UpdatedAt,
		section.ID,
	)
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

	return tx.Commit()
}

// Delete removes a section. Elements cascade at the database level.
func (r *SectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM sections WHERE id = $1`
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

func nextOrder(ctx context.Context, q dbtx, pageID uuid.UUID) (int, error) {
	const query = `SELECT COALESCE(MAX("order"), 0) + 1 FROM sections WHERE page_id = $1`
	var next int
	if err := q.QueryRowContext(ctx, query, pageID).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func orderTaken(ctx context.Context, q dbtx, pageID uuid.UUID, order int, exclude uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sections WHERE page_id = $1 AND "order" = $2 AND id <> $3)`
	var taken bool
	if err := q.QueryRowContext(ctx, query, pageID, order, exclude).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func insertSection(ctx context.Context, q dbtx, section types.Section) (types.Section, error) {
	props := section.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return types.Section{}, err
	}
	section.Properties = props

	const query = `
		INSERT INTO sections (page_id, type, properties, theme_key, category_id, "order", image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := q.QueryRowContext(
		ctx,
		query,
		section.PageID,
		section.Type,
		propsJSON,
		section.ThemeKey,
		section.CategoryID,
		section.Order,
		section.ImageKey,
		section.CreatedAt,
		section.UpdatedAt,
	).Scan(&section.ID); err != nil {
		return types.Section{}, err
	}
	return section, nil
}

func scanSection(row rowScanner) (types.Section, error) {
	var section types.Section
	var propsJSON []byte
	err := row.Scan(
		&section.ID,
		&section.PageID,
		&section.Type,
		&propsJSON,
		&section.ThemeKey,
		&section.CategoryID,
		&section.Order,
		&section.ImageKey,
		&section.CreatedAt,
		&section.UpdatedAt,
	)
	if err != nil {
		return types.Section{}, err
	}
	_ = json.Unmarshal(propsJSON, &section.Properties)
	return section, nil
}
