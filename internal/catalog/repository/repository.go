package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devis_backend/platform/apperr"
	"devis_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	priceItemNotFoundMessage = "Article non trouvé"
	priceItemColumns         = `id, company_id, label, price_excl_tax, unit, category, tax_rate, created_at, updated_at`
)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanPriceItem(row pgx.Row) (PriceItem, error) {
	var (
		item        PriceItem
		price, rate pgtype.Numeric
	)
	if err := row.Scan(&item.ID, &item.CompanyID, &item.Label, &price, &item.Unit, &item.Category, &rate, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return PriceItem{}, err
	}
	item.PriceExclTax = db.Decimal(price)
	item.TaxRate = db.Decimal(rate)
	return item, nil
}

const insertPriceItem = `
	INSERT INTO price_items (id, company_id, label, price_excl_tax, unit, category, tax_rate)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + priceItemColumns

func (r *Repo) Create(ctx context.Context, p CreateParams) (PriceItem, error) {
	item, err := scanPriceItem(r.pool.QueryRow(ctx, insertPriceItem,
		p.ID, p.CompanyID, p.Label, db.Numeric(p.PriceExclTax), p.Unit, p.Category, db.Numeric(p.TaxRate),
	))
	if err != nil {
		return PriceItem{}, fmt.Errorf("create price item: %w", err)
	}
	return item, nil
}

func (r *Repo) CreateMany(ctx context.Context, params []CreateParams) ([]PriceItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin price import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	items := make([]PriceItem, 0, len(params))
	for _, p := range params {
		item, err := scanPriceItem(tx.QueryRow(ctx, insertPriceItem,
			p.ID, p.CompanyID, p.Label, db.Numeric(p.PriceExclTax), p.Unit, p.Category, db.Numeric(p.TaxRate),
		))
		if err != nil {
			return nil, fmt.Errorf("import price item %q: %w", p.Label, err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit price import: %w", err)
	}
	return items, nil
}

func (r *Repo) Update(ctx context.Context, p UpdateParams) (PriceItem, error) {
	query := `
		UPDATE price_items
		SET
			label = COALESCE($3, label),
			price_excl_tax = COALESCE($4, price_excl_tax),
			unit = COALESCE($5, unit),
			category = COALESCE($6, category),
			tax_rate = COALESCE($7, tax_rate),
			updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + priceItemColumns

	item, err := scanPriceItem(r.pool.QueryRow(ctx, query,
		p.ID, p.CompanyID, p.Label, db.NullableNumeric(p.PriceExclTax), p.Unit, p.Category, db.NullableNumeric(p.TaxRate),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PriceItem{}, apperr.NotFound(priceItemNotFoundMessage)
		}
		return PriceItem{}, fmt.Errorf("update price item: %w", err)
	}
	return item, nil
}

func (r *Repo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM price_items WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("delete price item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(priceItemNotFoundMessage)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]PriceItem, int, error) {
	whereClauses := []string{"company_id = $1"}
	args := []any{params.CompanyID}
	argIdx := 2

	if params.Category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, params.Category)
		argIdx++
	}
	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("label ILIKE $%d", argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM price_items WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count price items: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM price_items
		WHERE %s
		ORDER BY category ASC, label ASC
		LIMIT $%d OFFSET $%d
	`, priceItemColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list price items: %w", err)
	}
	defer rows.Close()

	items := make([]PriceItem, 0)
	for rows.Next() {
		item, err := scanPriceItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan price item: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate price items: %w", rows.Err())
	}
	return items, total, nil
}

func (r *Repo) Categories(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM price_items WHERE company_id = $1 ORDER BY category`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect categories: %w", err)
	}
	return categories, nil
}
