package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) Store {
	return &Repository{db: q}
}

func (r *Repository) Create(ctx context.Context, user *User) error {
	query := `
	  INSERT INTO users (email, nickname, password, role)
	  VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'user'))
	  RETURNING id, role, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(
		ctx, query, user.Email, user.Nickname, user.Password.hash, user.Role,
	).Scan(&user.ID, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		case db.IsUniqueViolation(err, "users_nickname_key"):
			return ErrDuplicateNickname
		default:
			return fmt.Errorf("create user: %w", err)
		}
	}
	return nil
}

const selectUser = `
	SELECT id, email, nickname, password, profile_picture_url, role, created_at, updated_at
	FROM users
`

func (r *Repository) scanOne(ctx context.Context, where string, arg any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var u User
	err := r.db.QueryRow(ctx, selectUser+where, arg).Scan(
		&u.ID, &u.Email, &u.Nickname, &u.Password.hash, &u.ProfilePictureURL,
		&u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	return r.scanOne(ctx, `WHERE id = $1`, userID)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `WHERE email = $1`, email)
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, refreshToken, userID)
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var token *string
	err := r.db.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID)
	return err
}
