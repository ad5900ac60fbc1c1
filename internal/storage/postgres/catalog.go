package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
)

type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

const productCols = `id, slug, name, description, price, stock, available, image, category_id`

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Available, &p.Image, &p.CategoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, err
}

func (s *CatalogStore) ProductBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	return scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE slug=$1`, slug))
}

func (s *CatalogStore) ProductByID(ctx context.Context, id int64) (catalog.Product, error) {
	return scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (s *CatalogStore) ListAvailable(ctx context.Context, categorySlug string) ([]catalog.Product, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categorySlug == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT `+productCols+` FROM products WHERE available ORDER BY id`)
	} else {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM categories WHERE slug=$1)`, categorySlug).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, catalog.ErrNotFound
		}
		rows, err = s.pool.Query(ctx,
			`SELECT p.id, p.slug, p.name, p.description, p.price, p.stock, p.available, p.image, p.category_id
			 FROM products p JOIN categories c ON c.id = p.category_id
			 WHERE p.available AND c.slug=$1 ORDER BY p.id`, categorySlug)
	}
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (s *CatalogStore) Related(ctx context.Context, p catalog.Product, limit int) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productCols+` FROM products
		 WHERE available AND category_id=$1 AND id<>$2 ORDER BY id LIMIT $3`,
		p.CategoryID, p.ID, limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]catalog.Product, error) {
	defer rows.Close()
	out := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *CatalogStore) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []catalog.Category{}
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DecrementStock is the conditional decrement: the WHERE clause guarantees
// stock never drops below zero regardless of concurrent checkouts.
func (s *CatalogStore) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	ct, err := s.pool.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2`, id, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
