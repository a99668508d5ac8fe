package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"care-access/internal/domain/accessgrants"
	"care-access/internal/domain/persons"
)

const grantColumns = `
	id, token, grantor_type, grantor_id, grantee_type, grantee_id,
	person_id, access_level, permissions, status,
	token_expires_at, expires_at,
	granted_by_name, granted_by_email,
	created_at, updated_at, claimed_at, revoked_at
`

type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

func (r *AccessGrantsRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	perms, err := json.Marshal(g.Permissions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO access_grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		g.ID,
		g.Token,
		string(g.GrantorType),
		g.GrantorID,
		string(g.GranteeType),
		g.GranteeID,
		g.PersonID,
		string(g.AccessLevel),
		perms,
		string(g.Status),
		g.TokenExpiresAt,
		toNullTime(g.ExpiresAt),
		g.GrantedByName,
		g.GrantedByEmail,
		g.CreatedAt,
		g.UpdatedAt,
		toNullTime(g.ClaimedAt),
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		// 23505 = unique_violation; sobre el índice del token significa
		// colisión y el emisor reintenta con otro token.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return accessgrants.ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (r *AccessGrantsRepo) Update(ctx context.Context, g accessgrants.Grant) error {
	perms, err := json.Marshal(g.Permissions)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE access_grants
		SET
			grantee_id = $2,
			access_level = $3,
			permissions = $4,
			status = $5,
			expires_at = $6,
			updated_at = $7,
			claimed_at = $8,
			revoked_at = $9
		WHERE id = $1
	`,
		g.ID,
		g.GranteeID,
		string(g.AccessLevel),
		perms,
		string(g.Status),
		toNullTime(g.ExpiresAt),
		g.UpdatedAt,
		toNullTime(g.ClaimedAt),
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccessGrantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accessgrants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE id = $1
	`, id)

	return scanGrant(row)
}

func (r *AccessGrantsRepo) GetByToken(ctx context.Context, token string) (accessgrants.Grant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return accessgrants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE token = $1
	`, token)

	return scanGrant(row)
}

// Claim es UN solo UPDATE condicional: el WHERE verifica token + pending +
// token no vencido, y el RETURNING nos dice si ganamos. Nada de
// read-check-write con gap: dos claims concurrentes serializan en la fila
// y exactamente uno afecta filas.
func (r *AccessGrantsRepo) Claim(ctx context.Context, token, granteeID string, now time.Time) (accessgrants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE access_grants
		SET status = 'active', grantee_id = $2, claimed_at = $3, updated_at = $3
		WHERE token = $1
		  AND status = 'pending'
		  AND token_expires_at > $3
		RETURNING `+grantColumns+`
	`,
		token,
		granteeID,
		now,
	)

	return scanGrant(row)
}

func (r *AccessGrantsRepo) ListByPerson(ctx context.Context, personID string) ([]accessgrants.Grant, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE person_id = $1
		ORDER BY created_at ASC
	`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

func (r *AccessGrantsRepo) ListByGrantee(ctx context.Context, granteeType persons.AccessorType, granteeID string) ([]accessgrants.Grant, error) {
	granteeID = strings.TrimSpace(granteeID)
	if granteeID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE grantee_type = $1 AND grantee_id = $2
		ORDER BY updated_at DESC
	`,
		string(granteeType),
		granteeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

func scanGrant(row rowScanner) (accessgrants.Grant, error) {
	var g accessgrants.Grant
	var grantorType, granteeType, accessLevel, status string
	var perms []byte
	var expiresAt, claimedAt, revokedAt sql.NullTime

	if err := row.Scan(
		&g.ID,
		&g.Token,
		&grantorType,
		&g.GrantorID,
		&granteeType,
		&g.GranteeID,
		&g.PersonID,
		&accessLevel,
		&perms,
		&status,
		&g.TokenExpiresAt,
		&expiresAt,
		&g.GrantedByName,
		&g.GrantedByEmail,
		&g.CreatedAt,
		&g.UpdatedAt,
		&claimedAt,
		&revokedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return accessgrants.Grant{}, ErrNotFound
		}
		return accessgrants.Grant{}, err
	}

	g.GrantorType = persons.AccessorType(grantorType)
	g.GranteeType = persons.AccessorType(granteeType)
	g.AccessLevel = accessgrants.AccessLevel(accessLevel)
	g.Status = accessgrants.Status(status)

	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &g.Permissions); err != nil {
			return accessgrants.Grant{}, err
		}
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		g.ExpiresAt = &t
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		g.ClaimedAt = &t
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		g.RevokedAt = &t
	}

	return g, nil
}

func collectGrants(rows *sql.Rows) ([]accessgrants.Grant, error) {
	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
