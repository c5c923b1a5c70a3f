package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devis_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	clientNotFoundMessage = "client introuvable"
	clientColumns         = `id, company_id, name, client_type, address, email, phone, site_address, created_at, updated_at`
)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Type, &c.Address, &c.Email, &c.Phone, &c.SiteAddress, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repo) Create(ctx context.Context, params CreateParams) (Client, error) {
	query := `
		INSERT INTO clients (id, company_id, name, client_type, address, email, phone, site_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + clientColumns

	client, err := scanClient(r.pool.QueryRow(ctx, query,
		params.ID, params.CompanyID, params.Name, params.Type, params.Address, params.Email, params.Phone, params.SiteAddress,
	))
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (r *Repo) GetByID(ctx context.Context, companyID, id uuid.UUID) (Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND company_id = $2`
	client, err := scanClient(r.pool.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("get client: %w", err)
	}
	return client, nil
}

func (r *Repo) Update(ctx context.Context, params UpdateParams) (Client, error) {
	query := `
		UPDATE clients
		SET
			name = COALESCE($3, name),
			client_type = COALESCE($4, client_type),
			address = COALESCE($5, address),
			email = COALESCE($6, email),
			phone = COALESCE($7, phone),
			site_address = COALESCE($8, site_address),
			updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + clientColumns

	client, err := scanClient(r.pool.QueryRow(ctx, query,
		params.ID, params.CompanyID, params.Name, params.Type, params.Address, params.Email, params.Phone, params.SiteAddress,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

func (r *Repo) Search(ctx context.Context, companyID uuid.UUID, query string, limit int) ([]Client, error) {
	sql := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE company_id = $1 AND ($2 = '' OR lower(name) LIKE '%' || lower($2) || '%' ESCAPE '\')
		ORDER BY lower(name), created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, sql, companyID, escapeLike(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	defer rows.Close()

	clients := make([]Client, 0, limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
