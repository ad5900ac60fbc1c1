package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashrafalve/ecommerce-store-go/internal/wishlist"
)

type WishlistStore struct {
	pool *pgxpool.Pool
}

func NewWishlistStore(pool *pgxpool.Pool) *WishlistStore {
	return &WishlistStore{pool: pool}
}

func (s *WishlistStore) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM wishlist WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 1 {
		return false, nil
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO wishlist(user_id, product_id) VALUES($1, $2) ON CONFLICT DO NOTHING`, userID, productID)
	return err == nil, err
}

func (s *WishlistStore) Contains(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlist WHERE user_id=$1 AND product_id=$2)`, userID, productID).Scan(&exists)
	return exists, err
}

func (s *WishlistStore) ListByUser(ctx context.Context, userID int64) ([]wishlist.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, p.slug, p.price, p.image, p.available, w.added_at
		 FROM wishlist w JOIN products p ON p.id = w.product_id
		 WHERE w.user_id=$1 ORDER BY w.added_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []wishlist.Item{}
	for rows.Next() {
		var it wishlist.Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Slug, &it.Price, &it.Image, &it.Available, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
