package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"devis_backend/internal/quotes/domain"
	"devis_backend/platform/apperr"
	"devis_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	quoteNotFoundMsg = "Devis non trouvé"

	quoteColumns = `id, company_id, client_id, number, issue_date, currency, status, theme, accent_hex,
		cta_url, subject, validity_days, start_date, works_duration, payment_method, payment_terms, notes,
		discount_value, discount_mode, deposit_value, deposit_mode, detailed_description, pdf_key, sent_at,
		created_at, updated_at`

	lineColumns = `quote_id, kind, label, quantity, unit, unit_price_excl_tax, tax_rate, lot, is_option, note, line_total_excl_tax`
)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, q *domain.Quote) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create quote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	year := q.IssueDate.Year()
	var seq int
	err = tx.QueryRow(ctx, `
		INSERT INTO quote_number_counters (company_id, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, year) DO UPDATE SET last_number = quote_number_counters.last_number + 1
		RETURNING last_number`, q.CompanyID, year).Scan(&seq)
	if err != nil {
		return fmt.Errorf("next quote number: %w", err)
	}
	q.Number = domain.FormatNumber(year, seq)

	_, err = tx.Exec(ctx, `
		INSERT INTO quotes (
			id, company_id, client_id, number, issue_date, currency, status, theme, accent_hex,
			cta_url, subject, validity_days, start_date, works_duration, payment_method, payment_terms, notes,
			discount_value, discount_mode, deposit_value, deposit_mode, detailed_description, pdf_key,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		q.ID, q.CompanyID, q.ClientID, q.Number, q.IssueDate, q.Currency, string(q.Status), q.Theme, q.AccentHex,
		q.CTAURL, q.Subject, q.ValidityDays, q.StartDate, q.WorksDuration, q.PaymentMethod, q.PaymentTerms, q.Notes,
		db.Numeric(q.Discount.Value), q.Discount.Mode.String(), db.Numeric(q.Deposit.Value), q.Deposit.Mode.String(),
		q.DetailedDescription, q.PDFKey, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}

	if err := insertLines(ctx, tx, q.ID, q.Lines); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	lines, err := r.loadLines(ctx, []uuid.UUID{q.ID})
	if err != nil {
		return nil, err
	}
	q.Lines = lines[q.ID]
	return q, nil
}

func (r *Repo) Save(ctx context.Context, q *domain.Quote, replaceLines bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save quote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE quotes SET
			client_id = $3, issue_date = $4, currency = $5, status = $6, theme = $7, accent_hex = $8,
			cta_url = $9, subject = $10, validity_days = $11, start_date = $12, works_duration = $13,
			payment_method = $14, payment_terms = $15, notes = $16,
			discount_value = $17, discount_mode = $18, deposit_value = $19, deposit_mode = $20,
			detailed_description = $21, updated_at = $22
		WHERE id = $1 AND company_id = $2`,
		q.ID, q.CompanyID, q.ClientID, q.IssueDate, q.Currency, string(q.Status), q.Theme, q.AccentHex,
		q.CTAURL, q.Subject, q.ValidityDays, q.StartDate, q.WorksDuration,
		q.PaymentMethod, q.PaymentTerms, q.Notes,
		db.Numeric(q.Discount.Value), q.Discount.Mode.String(), db.Numeric(q.Deposit.Value), q.Deposit.Mode.String(),
		q.DetailedDescription, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}

	if replaceLines {
		if _, err := tx.Exec(ctx, `DELETE FROM quote_lines WHERE quote_id = $1`, q.ID); err != nil {
			return fmt.Errorf("delete quote lines: %w", err)
		}
		if err := insertLines(ctx, tx, q.ID, q.Lines); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]*domain.Quote, int, error) {
	where := []string{"company_id = $1"}
	args := []any{params.CompanyID}
	argIdx := 2
	if params.Status != "" {
		where = append(where, "status = $"+strconv.Itoa(argIdx))
		args = append(args, params.Status)
		argIdx++
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE %s ORDER BY issue_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, whereClause, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var (
		quotes []*domain.Quote
		ids    []uuid.UUID
	)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate quotes: %w", err)
	}

	if len(ids) > 0 {
		lines, err := r.loadLines(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, q := range quotes {
			q.Lines = lines[q.ID]
		}
	}
	return quotes, total, nil
}

func (r *Repo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotes WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

func (r *Repo) MarkSent(ctx context.Context, companyID, id uuid.UUID, pdfKey string, sentAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotes SET status = $3, pdf_key = $4, sent_at = $5, updated_at = $5
		WHERE id = $1 AND company_id = $2`,
		id, companyID, string(domain.StatusSent), pdfKey, sentAt)
	if err != nil {
		return fmt.Errorf("mark quote sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

func insertLines(ctx context.Context, tx pgx.Tx, quoteID uuid.UUID, lines []*domain.LineItem) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(`INSERT INTO quote_lines (id, position, `+lineColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			uuid.New(), i, quoteID, l.Kind, l.Label, db.Numeric(l.Quantity), l.Unit,
			db.NullableNumeric(l.UnitPriceExclTax), db.Numeric(l.TaxRate), l.Lot, l.IsOption, l.Note,
			db.Numeric(l.LineTotalExclTax),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert quote lines: %w", err)
	}
	return nil
}

func (r *Repo) loadLines(ctx context.Context, quoteIDs []uuid.UUID) (map[uuid.UUID][]*domain.LineItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+` FROM quote_lines WHERE quote_id = ANY($1) ORDER BY quote_id, position`, quoteIDs)
	if err != nil {
		return nil, fmt.Errorf("load quote lines: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]*domain.LineItem, len(quoteIDs))
	for rows.Next() {
		var (
			quoteID                    uuid.UUID
			l                          domain.LineItem
			qty, price, rate, lineExcl pgtype.Numeric
		)
		if err := rows.Scan(&quoteID, &l.Kind, &l.Label, &qty, &l.Unit, &price, &rate, &l.Lot, &l.IsOption, &l.Note, &lineExcl); err != nil {
			return nil, fmt.Errorf("scan quote line: %w", err)
		}
		l.Quantity = db.Decimal(qty)
		l.UnitPriceExclTax = db.NullableDecimal(price)
		l.TaxRate = db.Decimal(rate)
		l.LineTotalExclTax = db.Decimal(lineExcl)
		out[quoteID] = append(out[quoteID], &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote lines: %w", err)
	}
	return out, nil
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var (
		q                           domain.Quote
		status, discMode, depMode   string
		discountValue, depositValue pgtype.Numeric
	)
	err := row.Scan(
		&q.ID, &q.CompanyID, &q.ClientID, &q.Number, &q.IssueDate, &q.Currency, &status, &q.Theme, &q.AccentHex,
		&q.CTAURL, &q.Subject, &q.ValidityDays, &q.StartDate, &q.WorksDuration, &q.PaymentMethod, &q.PaymentTerms, &q.Notes,
		&discountValue, &discMode, &depositValue, &depMode, &q.DetailedDescription, &q.PDFKey, &q.SentAt,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.Status = domain.Status(status)
	q.Discount.Value = db.Decimal(discountValue)
	q.Discount.Mode, _ = domain.ParseAdjustmentMode(discMode)
	q.Deposit.Value = db.Decimal(depositValue)
	q.Deposit.Mode, _ = domain.ParseAdjustmentMode(depMode)
	return &q, nil
}
