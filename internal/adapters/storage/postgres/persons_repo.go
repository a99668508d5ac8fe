package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"care-access/internal/domain/persons"
)

type PersonsRepo struct {
	db *sql.DB
}

func NewPersonsRepo(db *sql.DB) *PersonsRepo {
	return &PersonsRepo{db: db}
}

func (r *PersonsRepo) Create(ctx context.Context, p persons.Person) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO persons (id, name, birth_date, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		p.ID,
		p.Name,
		toNullTime(p.BirthDate),
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PersonsRepo) GetByID(ctx context.Context, id string) (persons.Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return persons.Person{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, birth_date, notes, created_at, updated_at
		FROM persons
		WHERE id = $1
	`, id)

	return scanPerson(row)
}

// ON CONFLICT DO NOTHING: la PK compuesta hace el duplicado inofensivo,
// y la existencia sigue siendo binaria (no multiplica permisos).
func (r *PersonsRepo) AddOwnership(ctx context.Context, o persons.Ownership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ownerships (accessor_type, accessor_id, person_id, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (accessor_type, accessor_id, person_id) DO NOTHING
	`,
		string(o.AccessorType),
		o.AccessorID,
		o.PersonID,
		o.CreatedAt,
	)
	return err
}

func (r *PersonsRepo) RemoveOwnership(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM ownerships
		WHERE accessor_type = $1 AND accessor_id = $2 AND person_id = $3
	`,
		string(accessorType),
		accessorID,
		personID,
	)
	return err
}

func (r *PersonsRepo) HasOwnership(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ownerships
			WHERE accessor_type = $1 AND accessor_id = $2 AND person_id = $3
		)
	`,
		string(accessorType),
		accessorID,
		personID,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PersonsRepo) ListByAccessor(ctx context.Context, accessorType persons.AccessorType, accessorID string) ([]persons.Person, error) {
	accessorID = strings.TrimSpace(accessorID)
	if accessorID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.birth_date, p.notes, p.created_at, p.updated_at
		FROM persons p
		JOIN ownerships o ON o.person_id = p.id
		WHERE o.accessor_type = $1 AND o.accessor_id = $2
		ORDER BY p.created_at ASC
	`,
		string(accessorType),
		accessorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]persons.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (persons.Person, error) {
	var p persons.Person
	var birthDate sql.NullTime

	if err := row.Scan(
		&p.ID,
		&p.Name,
		&birthDate,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return persons.Person{}, ErrNotFound
		}
		return persons.Person{}, err
	}

	if birthDate.Valid {
		t := birthDate.Time
		p.BirthDate = &t
	}
	return p, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
