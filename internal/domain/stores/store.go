package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) Store {
	return &Repository{db: q}
}

const storeColumns = `s.id, s.name, s.address, s.phone, s.coord_x, s.coord_y,
       s.opening_hours, s.machine_count, s.image_urls, s.created_at, s.updated_at`

func scanStore(row pgx.Row, s *Shop) error {
	return row.Scan(
		&s.ID, &s.Name, &s.Address, &s.Phone, &s.CoordX, &s.CoordY,
		&s.OpeningHours, &s.MachineCount, &s.ImageURLs, &s.CreatedAt, &s.UpdatedAt,
	)
}

func collectStores(rows pgx.Rows) ([]Shop, error) {
	defer rows.Close()

	list := []Shop{}
	for rows.Next() {
		var s Shop
		if err := scanStore(rows, &s); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return list, nil
}

// Create creates a new store in the database
func (r *Repository) Create(ctx context.Context, s *Shop) error {
	query := `
    INSERT INTO stores (name, address, phone, coord_x, coord_y, opening_hours, machine_count, image_urls)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id, created_at, updated_at
    `
	if s.ImageURLs == nil {
		s.ImageURLs = []string{}
	}
	err := r.db.QueryRow(ctx, query,
		s.Name, s.Address, s.Phone, s.CoordX, s.CoordY, s.OpeningHours, s.MachineCount, s.ImageURLs,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, storeID int64) (*Shop, error) {
	var s Shop
	err := scanStore(r.db.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores s WHERE s.id = $1`, storeID), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

func searchClause(query string) (string, []any) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}
	return ` WHERE s.name ILIKE $1 OR s.address ILIKE $1`, []any{"%" + query + "%"}
}

// List returns a page of stores, newest first, with the total match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Shop, int, error) {
	where, args := searchClause(filter.Query)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stores s`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stores: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM stores s%s ORDER BY s.id DESC LIMIT $%d OFFSET $%d`,
		storeColumns, where, n+1, n+2)
	rows, err := r.db.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}

	list, err := collectStores(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListAll returns every store matching query. Used by the nearby search,
// which filters after converting coordinates.
func (r *Repository) ListAll(ctx context.Context, query string) ([]Shop, error) {
	where, args := searchClause(query)
	rows, err := r.db.Query(ctx, `SELECT `+storeColumns+` FROM stores s`+where+` ORDER BY s.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return collectStores(rows)
}

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, storeID int64, in UpdateInput) (*Shop, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if in.Name != nil {
		set("name", *in.Name)
	}
	if in.Address != nil {
		set("address", *in.Address)
	}
	if in.Phone != nil {
		set("phone", *in.Phone)
	}
	if in.CoordX != nil {
		set("coord_x", *in.CoordX)
	}
	if in.CoordY != nil {
		set("coord_y", *in.CoordY)
	}
	if in.OpeningHours != nil {
		set("opening_hours", *in.OpeningHours)
	}
	if in.MachineCount != nil {
		set("machine_count", *in.MachineCount)
	}

	args = append(args, storeID)
	query := fmt.Sprintf("UPDATE stores SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrStoreNotFound
	}
	return r.GetByID(ctx, storeID)
}

func (r *Repository) Delete(ctx context.Context, storeID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stores WHERE id = $1`, storeID)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// AddPhotoURL adds a new photo URL to a store's image_urls array
func (r *Repository) AddPhotoURL(ctx context.Context, storeID int64, photoURL string) error {
	query := `
		UPDATE stores
		SET image_urls = array_append(image_urls, $1), updated_at = NOW()
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, photoURL, storeID)
	if err != nil {
		return fmt.Errorf("failed to add photo URL: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// RemovePhotoURL removes a specific photo URL from a store's image_urls array
func (r *Repository) RemovePhotoURL(ctx context.Context, storeID int64, photoURL string) error {
	query := `
		UPDATE stores
		SET image_urls = array_remove(image_urls, $1), updated_at = NOW()
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, photoURL, storeID)
	if err != nil {
		return fmt.Errorf("failed to remove photo URL: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// Exists checks whether a store with the same name and address is registered.
func (r *Repository) Exists(ctx context.Context, name, address string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stores WHERE name = $1 AND address = $2)`,
		name, address,
	).Scan(&exists)
	return exists, err
}

// AddFavorite is a no-op when the store is already a favourite.
func (r *Repository) AddFavorite(ctx context.Context, userID, storeID int64) error {
	query := `
		INSERT INTO favorite_stores (user_id, store_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, store_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID, storeID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrStoreNotFound
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *Repository) RemoveFavorite(ctx context.Context, userID, storeID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM favorite_stores WHERE user_id = $1 AND store_id = $2`, userID, storeID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (r *Repository) GetFavoritesByUser(ctx context.Context, userID int64) ([]Shop, error) {
	query := `
		SELECT ` + storeColumns + `
		FROM favorite_stores f
		JOIN stores s ON s.id = f.store_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return collectStores(rows)
}

func (r *Repository) GetFavoriterIDs(ctx context.Context, storeID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM favorite_stores WHERE store_id = $1`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list favoriters: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
