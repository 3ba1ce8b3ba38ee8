package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slatecms/apiserver/types"
)

const pageColumns = `id, user_id, template_id, title, slug, status, is_homepage, seo_meta, view_count, created_at, updated_at`

// PageFilter narrows a page listing.
type PageFilter struct {
	UserID *uuid.UUID
	Status string
}

// PageRepository handles persistence for pages and owns the transactional
// write paths that keep the page-level invariants (atomic instantiation,
// single homepage) intact.
type PageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) List(ctx context.Context, filter PageFilter, offset, limit int) ([]types.Page, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where := ""
	args := []any{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	countQuery := `SELECT COUNT(1) FROM pages WHERE TRUE` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, offset, limit)
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM pages
		WHERE TRUE%s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d`, pageColumns, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pages := make([]types.Page, 0, limit)
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, 0, err
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return pages, total, nil
}

func (r *PageRepository) Get(ctx context.Context, id uuid.UUID) (types.Page, error) {
	query := fmt.Sprintf(`SELECT %s FROM pages WHERE id = $1`, pageColumns)
	page, err := scanPage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Page{}, ErrNotFound
		}
		return types.Page{}, err
	}
	return page, nil
}

func (r *PageRepository) GetBySlug(ctx context.Context, slug string) (types.Page, error) {
	query := fmt.Sprintf(`SELECT %s FROM pages WHERE slug = $1`, pageColumns)
	page, err := scanPage(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Page{}, ErrNotFound
		}
		return types.Page{}, err
	}
	return page, nil
}

// SlugExists reports whether any page already uses slug.
func (r *PageRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM pages WHERE slug = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a page together with its instantiated sections in one
// transaction. Either everything commits or nothing does, so a failing
// structure entry never leaves a half-materialized page behind. When the
// page is flagged as homepage the owner's other homepage flags are
// cleared in the same transaction, which then runs serializable so two
// concurrent creates cannot both keep the flag. A conflict with a
// concurrent homepage write is retried once; the second attempt sees
// the committed competitor and clears it.
func (r *PageRepository) Create(ctx context.Context, page types.Page, sections []types.Section) (types.Page, []types.Section, error) {
	now := time.Now()
	page.CreatedAt = now
	page.UpdatedAt = now

	seoJSON, err := json.Marshal(page.SEOMeta)
	if err != nil {
		return types.Page{}, nil, err
	}

	created, createdSections, err := r.createOnce(ctx, page, seoJSON, sections, now)
	if err != nil && (isSerializationFailure(err) || isUniqueViolation(err, "pages_user_homepage_key")) {
		created, createdSections, err = r.createOnce(ctx, page, seoJSON, sections, now)
	}
	if err != nil {
		if isUniqueViolation(err, "") || isSerializationFailure(err) {
			return types.Page{}, nil, ErrConflict
		}
		return types.Page{}, nil, err
	}
	return created, createdSections, nil
}

func (r *PageRepository) createOnce(ctx context.Context, page types.Page, seoJSON []byte, sections []types.Section, now time.Time) (types.Page, []types.Section, error) {
	opts := &sql.TxOptions{}
	if page.IsHomepage {
		opts.Isolation = sql.LevelSerializable
	}
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return types.Page{}, nil, err
	}
	defer tx.Rollback()

	if page.IsHomepage {
		const clear = `UPDATE pages SET is_homepage = FALSE, updated_at = $1 WHERE user_id = $2 AND is_homepage`
		if _, err := tx.ExecContext(ctx, clear, now, page.UserID); err != nil {
			return types.Page{}, nil, err
		}
	}

	const insertPage = `
		INSERT INTO pages (user_id, template_id, title, slug, status, is_homepage, seo_meta, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
		RETURNING id`
	err = tx.QueryRowContext(
		ctx,
		insertPage,
		page.UserID,
		page.TemplateID,
		page.Title,
		page.Slug,
		page.Status,
		page.IsHomepage,
		seoJSON,
		page.CreatedAt,
		page.UpdatedAt,
	).Scan(&page.ID)
	if err != nil {
		return types.Page{}, nil, err
	}

	created := make([]types.Section, 0, len(sections))
	for _, section := range sections {
		section.PageID = page.ID
		section.CreatedAt = now
		section.UpdatedAt = now
		inserted, err := insertSection(ctx, tx, section)
		if err != nil {
			return types.Page{}, nil, err
		}
		created = append(created, inserted)
	}

	if err := tx.Commit(); err != nil {
		return types.Page{}, nil, err
	}
	return page, created, nil
}

func (r *PageRepository) Update(ctx context.Context, page types.Page) (types.Page, error) {
	page.UpdatedAt = time.Now()

	seoJSON, err := json.Marshal(page.SEOMeta)
	if err != nil {
		return types.Page{}, err
	}

	const query = `
		UPDATE pages
		SET title = $1,
			slug = $2,
			status = $3,
			seo_meta = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		page.Title,
		page.Slug,
		page.Status,
		seoJSON,
		page.UpdatedAt,
		page.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "pages_slug_key") {
			return types.Page{}, ErrConflict
		}
		return types.Page{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Page{}, err
	}
	if affected == 0 {
		return types.Page{}, ErrNotFound
	}
	return page, nil
}

// SetHomepage flags one page as the owner's homepage. The flag is cleared
// on every other page of the same owner in the same transaction, so at
// most one page per owner ever carries it. A conflict with a concurrent
// homepage write is retried once.
func (r *PageRepository) SetHomepage(ctx context.Context, userID, pageID uuid.UUID) error {
	err := r.setHomepageOnce(ctx, userID, pageID)
	if err != nil && (isSerializationFailure(err) || isUniqueViolation(err, "pages_user_homepage_key")) {
		err = r.setHomepageOnce(ctx, userID, pageID)
	}
	if err != nil {
		if isSerializationFailure(err) || isUniqueViolation(err, "pages_user_homepage_key") {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *PageRepository) setHomepageOnce(ctx context.Context, userID, pageID uuid.UUID) error {
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const clear = `UPDATE pages SET is_homepage = FALSE, updated_at = $1 WHERE user_id = $2 AND is_homepage AND id <> $3`
	if _, err := tx.ExecContext(ctx, clear, now, userID, pageID); err != nil {
		return err
	}

	const set = `UPDATE pages SET is_homepage = TRUE, updated_at = $1 WHERE id = $2 AND user_id = $3`
	result, err := tx.ExecContext(ctx, set, now, pageID, userID)
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

// Delete removes a page. Sections and elements cascade at the database
// level.
func (r *PageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM pages WHERE id = $1`
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

// IncrementViewCount bumps the public render counter.
func (r *PageRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE pages SET view_count = view_count + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (types.Page, error) {
	var page types.Page
	var seoJSON []byte
	err := row.Scan(
		&page.ID,
		&page.UserID,
		&page.TemplateID,
		&page.Title,
		&page.Slug,
		&page.Status,
		&page.IsHomepage,
		&seoJSON,
		&page.ViewCount,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		return types.Page{}, err
	}
	if len(seoJSON) > 0 {
		_ = json.Unmarshal(seoJSON, &page.SEOMeta)
	}
	return page, nil
}
