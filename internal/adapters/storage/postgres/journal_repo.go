package postgres

import (
	"context"
	"database/sql"
	"strings"

	"care-access/internal/domain/journal"
	"care-access/internal/domain/persons"
)

type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) Create(ctx context.Context, e journal.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journal_entries (
			id, person_id, title, body, author_type, author_id,
			occurred_at, recorded_at, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		e.ID,
		e.PersonID,
		e.Title,
		e.Body,
		string(e.Author.Type),
		e.Author.ID,
		e.OccurredAt,
		e.RecordedAt,
		string(e.Status),
	)
	return err
}

func (r *JournalRepo) GetByID(ctx context.Context, id string) (journal.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return journal.Entry{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, person_id, title, body, author_type, author_id,
		       occurred_at, recorded_at, status
		FROM journal_entries
		WHERE id = $1
	`, id)

	return scanEntry(row)
}

func (r *JournalRepo) ListByPerson(ctx context.Context, personID string) ([]journal.Entry, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, person_id, title, body, author_type, author_id,
		       occurred_at, recorded_at, status
		FROM journal_entries
		WHERE person_id = $1
		ORDER BY occurred_at DESC
	`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]journal.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *JournalRepo) Void(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE journal_entries
		SET status = 'voided'
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntry(row rowScanner) (journal.Entry, error) {
	var e journal.Entry
	var authorType, status string

	if err := row.Scan(
		&e.ID,
		&e.PersonID,
		&e.Title,
		&e.Body,
		&authorType,
		&e.Author.ID,
		&e.OccurredAt,
		&e.RecordedAt,
		&status,
	); err != nil {
		if err == sql.ErrNoRows {
			return journal.Entry{}, ErrNotFound
		}
		return journal.Entry{}, err
	}

	e.Author.Type = persons.AccessorType(authorType)
	e.Status = journal.EntryStatus(status)
	return e, nil
}
