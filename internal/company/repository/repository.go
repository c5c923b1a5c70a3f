package repository

import (
	"context"
	"errors"
	"fmt"

	"devis_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	companyNotFoundMessage = "Entreprise non trouvée"
	companyExistsMessage   = "Cette entreprise existe déjà"

	uniqueViolation = "23505"

	companyColumns = `id, name, legal_form, siret, vat_number, address, email, phone, logo_key, iban, bic, password_hash, created_at, updated_at`
)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Name, &c.LegalForm, &c.SIRET, &c.VATNumber, &c.Address, &c.Email, &c.Phone,
		&c.LogoKey, &c.IBAN, &c.BIC, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *Repo) Create(ctx context.Context, params CreateParams) (Company, error) {
	query := `
		INSERT INTO companies (id, name, legal_form, siret, vat_number, address, email, phone, iban, bic, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + companyColumns

	company, err := scanCompany(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.LegalForm, params.SIRET, params.VATNumber, params.Address,
		params.Email, params.Phone, params.IBAN, params.BIC, params.PasswordHash,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Company{}, apperr.Conflict(companyExistsMessage)
		}
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	company, err := scanCompany(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(companyNotFoundMessage)
		}
		return Company{}, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

func (r *Repo) GetByName(ctx context.Context, name string) (Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE lower(name) = lower($1)`
	company, err := scanCompany(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(companyNotFoundMessage)
		}
		return Company{}, fmt.Errorf("get company by name: %w", err)
	}
	return company, nil
}

func (r *Repo) Update(ctx context.Context, params UpdateParams) (Company, error) {
	query := `
		UPDATE companies
		SET
			legal_form = COALESCE($2, legal_form),
			siret = COALESCE($3, siret),
			vat_number = COALESCE($4, vat_number),
			address = COALESCE($5, address),
			email = COALESCE($6, email),
			phone = COALESCE($7, phone),
			iban = COALESCE($8, iban),
			bic = COALESCE($9, bic),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + companyColumns

	company, err := scanCompany(r.pool.QueryRow(ctx, query,
		params.ID, params.LegalForm, params.SIRET, params.VATNumber, params.Address,
		params.Email, params.Phone, params.IBAN, params.BIC,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(companyNotFoundMessage)
		}
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return company, nil
}

func (r *Repo) SetLogoKey(ctx context.Context, id uuid.UUID, key string) (Company, error) {
	query := `UPDATE companies SET logo_key = $2, updated_at = now() WHERE id = $1 RETURNING ` + companyColumns
	company, err := scanCompany(r.pool.QueryRow(ctx, query, id, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(companyNotFoundMessage)
		}
		return Company{}, fmt.Errorf("set company logo: %w", err)
	}
	return company, nil
}
