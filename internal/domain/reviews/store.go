package reviews

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

const selectReview = `
	SELECT r.id, r.store_id, r.user_id, r.rating, r.content,
	       r.image_urls, r.tags, r.prize_image_urls,
	       r.created_at, r.updated_at,
	       COALESCE(u.nickname, r.author_name, ''), u.profile_picture_url
	FROM reviews r
	LEFT JOIN users u ON u.id = r.user_id
`

func scanReview(row pgx.Row, review *Review) error {
	return row.Scan(
		&review.ID,
		&review.StoreID,
		&review.UserID,
		&review.Rating,
		&review.Content,
		&review.ImageURLs,
		&review.Tags,
		&review.PrizeImageURLs,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.UserName,
		&review.AvatarURL,
	)
}

// Create inserts a review. Anonymous reviews carry only UserName.
func (r *Repository) Create(ctx context.Context, review *Review) error {
	query := `
        INSERT INTO reviews (store_id, user_id, author_name, rating, content, image_urls, tags, prize_image_urls)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at
    `
	var authorName string
	if review.UserID == nil {
		authorName = review.UserName
	}

	err := r.db.QueryRow(ctx, query,
		review.StoreID,
		review.UserID,
		authorName,
		review.Rating,
		review.Content,
		nonNil(review.ImageURLs),
		nonNil(review.Tags),
		nonNil(review.PrizeImageURLs),
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	var review Review
	err := scanReview(r.db.QueryRow(ctx, selectReview+` WHERE r.id = $1`, reviewID), &review)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

// ListByStore returns one page of a store's reviews in the requested order
// plus the total number of reviews for the store.
func (r *Repository) ListByStore(ctx context.Context, q ListQuery) ([]Review, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE store_id = $1`, q.StoreID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	orderBy := "r.created_at DESC, r.id DESC"
	if q.Sort == SortRating {
		orderBy = "r.rating DESC, r.created_at DESC, r.id DESC"
	}

	query := selectReview + `
        WHERE r.store_id = $1
        ORDER BY ` + orderBy + `
        LIMIT $2 OFFSET $3
    `
	rows, err := r.db.Query(ctx, query, q.StoreID, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	list := []Review{}
	for rows.Next() {
		var review Review
		if err := scanReview(rows, &review); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		list = append(list, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}

	return list, total, nil
}

// Update edits a review owned by userID. Nil fields are left untouched.
func (r *Repository) Update(ctx context.Context, reviewID, userID int64, in UpdateInput) (*Review, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if in.Rating != nil {
		sets = append(sets, "rating = "+arg(*in.Rating))
	}
	if in.Content != nil {
		sets = append(sets, "content = "+arg(*in.Content))
	}
	if in.Tags != nil {
		sets = append(sets, "tags = "+arg(in.Tags))
	}
	if in.ImageURLs != nil {
		sets = append(sets, "image_urls = "+arg(in.ImageURLs))
	}

	query := fmt.Sprintf(
		"UPDATE reviews SET %s WHERE id = %s AND user_id = %s",
		strings.Join(sets, ", "), arg(reviewID), arg(userID),
	)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, r.missOrNotOwner(ctx, reviewID)
	}

	return r.GetByID(ctx, reviewID)
}

func (r *Repository) Delete(ctx context.Context, reviewID, userID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrNotOwner(ctx, reviewID)
	}
	return nil
}

func (r *Repository) AdminDelete(ctx context.Context, reviewID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetStats(ctx context.Context, storeID int64) (Stats, error) {
	var s Stats
	query := `
        SELECT COUNT(id), COALESCE(AVG(rating), 0)
        FROM reviews
        WHERE store_id = $1
    `
	if err := r.db.QueryRow(ctx, query, storeID).Scan(&s.Total, &s.Average); err != nil {
		return Stats{}, fmt.Errorf("review stats: %w", err)
	}
	return s, nil
}

func (r *Repository) missOrNotOwner(ctx context.Context, reviewID int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, reviewID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNotOwner
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
