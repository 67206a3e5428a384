package sqlite

import (
	"context"
	"time"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `id, client_id, name, secret_hash, redirect_uris, grant_types, protected, created_at, updated_at`

func scanClient(row rowScanner) (domain.Client, error) {
	var c domain.Client
	var redirectURIs, grantTypes string
	err := row.Scan(&c.ID, &c.ClientID, &c.Name, &c.SecretHash,
		&redirectURIs, &grantTypes, &c.Protected, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.RedirectURIs = splitList(redirectURIs)
	c.GrantTypes = splitList(grantTypes)
	return c, nil
}

func (r *clientsRepo) GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	return scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE client_id = ?`, clientID))
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, client_id, name, secret_hash, redirect_uris, grant_types, protected, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.Name, c.SecretHash,
		joinList(c.RedirectURIs), joinList(c.GrantTypes), c.Protected, now, now)
	return err
}

func (r *clientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM clients WHERE client_id = ? AND protected = 0`, clientID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count)
	return count == 0, err
}
