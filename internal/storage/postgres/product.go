package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

const productColumns = `id, name, price, category, in_stock, sizes,
	image_thumbnail, image_mobile, image_tablet, image_desktop`

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns the products matching ids in a single query. Missing IDs
// are simply absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Upsert inserts or replaces a product row. Used by the seed and feed-ingest
// tools.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	sizes := make([]string, len(p.Sizes))
	for i, s := range p.Sizes {
		sizes[i] = s.String()
	}

	_, err := r.pool.Exec(ctx, `INSERT INTO products
		(id, name, price, category, in_stock, sizes,
		 image_thumbnail, image_mobile, image_tablet, image_desktop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			in_stock = EXCLUDED.in_stock,
			sizes = EXCLUDED.sizes,
			image_thumbnail = EXCLUDED.image_thumbnail,
			image_mobile = EXCLUDED.image_mobile,
			image_tablet = EXCLUDED.image_tablet,
			image_desktop = EXCLUDED.image_desktop`,
		p.ID, p.Name, p.Price, p.Category, p.InStock, sizes,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Tablet, p.Image.Desktop,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

// SetStock updates availability in bulk. Used by the feed-ingest tool after
// cross-checking supplier feeds. Returns the number of rows touched.
func (r *ProductRepository) SetStock(ctx context.Context, ids []string, inStock bool) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET in_stock = $2 WHERE id = ANY($1)`, ids, inStock)
	if err != nil {
		return 0, fmt.Errorf("updating stock: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkAllOutOfStock clears availability across the whole catalog, typically
// right before a full feed ingest re-confirms what is actually stocked.
func (r *ProductRepository) MarkAllOutOfStock(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `UPDATE products SET in_stock = FALSE`); err != nil {
		return fmt.Errorf("clearing stock flags: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
		sizes []string
	)
	err := row.Scan(&p.ID, &p.Name, &price, &p.Category, &p.InStock, &sizes,
		&p.Image.Thumbnail, &p.Image.Mobile, &p.Image.Tablet, &p.Image.Desktop)
	if err != nil {
		return product.Product{}, err
	}
	p.Price = price

	for _, s := range sizes {
		size, err := product.ParseSize(s)
		if err != nil {
			return product.Product{}, fmt.Errorf("product %q: %w", p.ID, err)
		}
		if size != product.SizeNone {
			p.Sizes = append(p.Sizes, size)
		}
	}
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]product.Product, error) {
	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	return products, nil
}
