package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
)

type authorizationCodesRepo struct {
	db dbtx
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO authorization_codes (id, user_id, client_id, code_hash, redirect_uri, scopes, session_id, code_challenge, code_challenge_method, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code.ID, code.UserID, code.ClientID, code.CodeHash, code.RedirectURI,
		joinList(code.Scopes), code.SessionID,
		code.CodeChallenge, code.CodeChallengeMethod,
		code.ExpiresAt, time.Now().UTC())
	return err
}

func (r *authorizationCodesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	var code domain.AuthorizationCode
	var scopes string
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, client_id, code_hash, redirect_uri, scopes, session_id, code_challenge, code_challenge_method, expires_at, used_at, created_at
		 FROM authorization_codes WHERE code_hash = ?`, hash).
		Scan(&code.ID, &code.UserID, &code.ClientID, &code.CodeHash, &code.RedirectURI,
			&scopes, &code.SessionID, &code.CodeChallenge, &code.CodeChallengeMethod,
			&code.ExpiresAt, &usedAt, &code.CreatedAt)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	code.Scopes = splitList(scopes)
	code.UsedAt = mapNullTimePtr(usedAt)
	return code, nil
}

func (r *authorizationCodesRepo) MarkAuthorizationCodeUsed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE authorization_codes SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM authorization_codes WHERE expires_at < ?`, time.Now().UTC())
	return err
}
