package ads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) Store {
	return &Repository{db: q}
}

const adColumns = `a.id, a.store_id, a.title, a.description, a.image_url, a.link, a.active,
       a.display_order, a.starts_at, a.ends_at, a.impressions, a.clicks, a.created_at, a.updated_at`

func adFields(ad *Ad) []any {
	return []any{
		&ad.ID, &ad.StoreID, &ad.Title, &ad.Description, &ad.ImageURL, &ad.Link, &ad.Active,
		&ad.DisplayOrder, &ad.StartsAt, &ad.EndsAt, &ad.Impressions, &ad.Clicks,
		&ad.CreatedAt, &ad.UpdatedAt,
	}
}

// GetActiveAds returns active ads whose window contains now, joined with
// their store, ordered by display_order and created_at
func (r *Repository) GetActiveAds(ctx context.Context, now time.Time) ([]ActiveAd, error) {
	query := `
		SELECT ` + adColumns + `, s.name, s.address, s.coord_x, s.coord_y
		FROM ads a
		JOIN stores s ON s.id = a.store_id
		WHERE a.active = TRUE
		  AND (a.starts_at IS NULL OR a.starts_at <= $1)
		  AND (a.ends_at IS NULL OR a.ends_at > $1)
		ORDER BY a.display_order ASC, a.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active ads: %w", err)
	}
	defer rows.Close()

	list := []ActiveAd{}
	for rows.Next() {
		var ad ActiveAd
		dest := append(adFields(&ad.Ad), &ad.StoreName, &ad.StoreAddress, &ad.CoordX, &ad.CoordY)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan ad row: %w", err)
		}
		list = append(list, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return list, nil
}

// GetAllAds returns all ads with pagination for admin dashboard
func (r *Repository) GetAllAds(ctx context.Context, limit, offset int) ([]Ad, int, error) {
	var totalCount int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ads`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	query := `
	   SELECT ` + adColumns + `
	   FROM ads a
	   ORDER BY a.display_order ASC, a.created_at DESC
	   LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query all ads: %w", err)
	}
	defer rows.Close()

	list := []Ad{}
	for rows.Next() {
		var ad Ad
		if err := rows.Scan(adFields(&ad)...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan ad row: %w", err)
		}
		list = append(list, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over rows: %w", err)
	}

	return list, totalCount, nil
}

// GetAdByID retrieves a single ad by its ID
func (r *Repository) GetAdByID(ctx context.Context, id int64) (*Ad, error) {
	var ad Ad
	err := r.db.QueryRow(ctx, `SELECT `+adColumns+` FROM ads a WHERE a.id = $1`, id).Scan(adFields(&ad)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdNotFound
		}
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return &ad, nil
}

func (r *Repository) CreateAd(ctx context.Context, req CreateAdRequest) (*Ad, error) {
	query := `
		INSERT INTO ads (store_id, title, description, image_url, link, display_order, active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		req.StoreID, req.Title, req.Description, req.ImageURL, req.Link,
		req.DisplayOrder, req.Active, req.StartsAt, req.EndsAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}
	return r.GetAdByID(ctx, id)
}

func (r *Repository) UpdateAd(ctx context.Context, id int64, req UpdateAdRequest) (*Ad, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.ImageURL != nil {
		set("image_url", *req.ImageURL)
	}
	if req.Link != nil {
		set("link", *req.Link)
	}
	if req.Active != nil {
		set("active", *req.Active)
	}
	if req.DisplayOrder != nil {
		set("display_order", *req.DisplayOrder)
	}
	if req.EndsAt != nil {
		set("ends_at", *req.EndsAt)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE ads SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update ad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAdNotFound
	}
	return r.GetAdByID(ctx, id)
}

func (r *Repository) DeleteAd(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *Repository) ToggleAdStatus(ctx context.Context, id int64) (*Ad, error) {
	tag, err := r.db.Exec(ctx, `UPDATE ads SET active = NOT active, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle ad status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAdNotFound
	}
	return r.GetAdByID(ctx, id)
}

// Activate turns on a paid ad for the purchased window.
func (r *Repository) Activate(ctx context.Context, id int64, startsAt, endsAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE ads SET active = TRUE, starts_at = $2, ends_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, startsAt, endsAt)
	if err != nil {
		return fmt.Errorf("failed to activate ad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *Repository) IncrementImpressions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE ads SET impressions = impressions + 1 WHERE id = ANY($1)`, ids)
	return err
}

func (r *Repository) IncrementClicks(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE ads SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdNotFound
	}
	return nil
}
