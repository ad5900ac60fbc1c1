package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Create(ctx context.Context, email, passwordHash, firstName, lastName string) (auth.User, error) {
	var u auth.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users(email, password_hash, first_name, last_name)
		 VALUES($1, $2, $3, $4) RETURNING id, email, first_name, last_name, created_at`,
		email, passwordHash, firstName, lastName).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)
	if isUniqueViolation(err) {
		return auth.User{}, auth.ErrEmailTaken
	}
	return u, err
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (auth.User, string, error) {
	var (
		u    auth.User
		hash string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &hash, &u.FirstName, &u.LastName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, "", auth.ErrInvalidCredentials
	}
	return u, hash, err
}

func (s *UserStore) ByID(ctx context.Context, id int64) (auth.User, error) {
	var u auth.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, first_name, last_name, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrNotAuthenticated
	}
	return u, err
}
