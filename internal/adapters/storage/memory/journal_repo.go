package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"care-access/internal/domain/journal"
)

type journalRepo struct {
	mu   sync.RWMutex
	byID map[string]journal.Entry
}

func NewJournalRepo() journal.Repository {
	return &journalRepo{
		byID: make(map[string]journal.Entry),
	}
}

func (r *journalRepo) Create(ctx context.Context, e journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("entry id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("entry already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *journalRepo) GetByID(ctx context.Context, id string) (journal.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return journal.Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *journalRepo) ListByPerson(ctx context.Context, personID string) ([]journal.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]journal.Entry, 0)
	for _, e := range r.byID {
		if e.PersonID == personID {
			out = append(out, e)
		}
	}

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	return out, nil
}

func (r *journalRepo) Void(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = journal.EntryStatusVoided
	r.byID[id] = e
	return nil
}
