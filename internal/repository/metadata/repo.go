// Package metadata persists the catalog's source of truth in PostgreSQL.
// Indexes can always be rebuilt from this table.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shoplens/shoplens/internal/domain"
)

// DB is the consumer interface over *pgxpool.Pool; pgxmock satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// enumAttrs are the attributes DistinctValues may aggregate over.
var enumAttrs = map[string]bool{
	domain.AttrCategory: true,
	domain.AttrShop:     true,
	domain.AttrCurrency: true,
	domain.AttrRegion:   true,
}

// Repo implements product metadata storage.
type Repo struct {
	db DB
}

// New creates a metadata repository.
func New(db DB) *Repo {
	return &Repo{db: db}
}

// Insert stores a new product. A duplicate id fails with ErrAlreadyExists.
func (r *Repo) Insert(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images())
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	metadataJSON, err := json.Marshal(p.Metadata())
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO products (id, images, metadata)
		VALUES ($1, $2, $3)`

	if _, err := r.db.Exec(ctx, query, p.ID(), imagesJSON, metadataJSON); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: id %s", domain.ErrAlreadyExists, p.ID())
		}
		return fmt.Errorf("insert product %s: %w", p.ID(), err)
	}
	return nil
}

// Exists reports whether a product id is present.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product %s: %w", id, err)
	}
	return exists, nil
}

// GetByID retrieves a single product.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, images, metadata, recently_indexed
		FROM products
		WHERE id = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// GetByIDs retrieves products preserving the input id order. Unknown ids are
// skipped without error so fused rankings survive index drift.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, images, metadata, recently_indexed
		FROM products
		WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		byID[p.ID()] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	ordered := make([]*domain.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// DistinctValues returns the sorted distinct values of an enum attribute.
func (r *Repo) DistinctValues(ctx context.Context, attr string) ([]string, error) {
	if !enumAttrs[attr] {
		return nil, fmt.Errorf("attribute %s is not enumerable", attr)
	}

	query := `
		SELECT DISTINCT metadata->>$1 AS val
		FROM products
		WHERE metadata->>$1 IS NOT NULL AND metadata->>$1 <> ''
		ORDER BY val`

	rows, err := r.db.Query(ctx, query, attr)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", attr, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s value: %w", attr, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s values: %w", attr, err)
	}
	return values, nil
}

// MostRecentlyIndexed returns fully indexed products, newest first.
func (r *Repo) MostRecentlyIndexed(ctx context.Context, limit int) ([]*domain.Product, error) {
	query := `
		SELECT id, images, metadata, recently_indexed
		FROM products
		WHERE recently_indexed
		ORDER BY indexed_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recently indexed: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// MarkIndexed records that every image of the product has an index entry.
func (r *Repo) MarkIndexed(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE products
		SET recently_indexed = TRUE, indexed_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark indexed %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		id              string
		imagesJSON      []byte
		metadataJSON    []byte
		recentlyIndexed bool
	)
	if err := row.Scan(&id, &imagesJSON, &metadataJSON, &recentlyIndexed); err != nil {
		return nil, err
	}

	var images []string
	if err := json.Unmarshal(imagesJSON, &images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	var metadata map[string]any
	if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	return domain.Reconstruct(id, images, metadata, recentlyIndexed), nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
