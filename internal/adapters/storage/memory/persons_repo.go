package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"care-access/internal/domain/persons"
)

var (
	ErrNotFound = errors.New("not found")
)

type ownershipKey struct {
	accessorType persons.AccessorType
	accessorID   string
	personID     string
}

type personsRepo struct {
	mu         sync.RWMutex
	byID       map[string]persons.Person
	ownerships map[ownershipKey]persons.Ownership
}

func NewPersonsRepo() persons.Repository {
	return &personsRepo{
		byID:       make(map[string]persons.Person),
		ownerships: make(map[ownershipKey]persons.Ownership),
	}
}

func (r *personsRepo) Create(ctx context.Context, p persons.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("person id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("person already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *personsRepo) GetByID(ctx context.Context, id string) (persons.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return persons.Person{}, ErrNotFound
	}
	return p, nil
}

// El mapa keyed por la tupla completa hace que un duplicado pise al anterior:
// "a lo sumo una ownership activa por (type, accessor, person)" sale gratis.
func (r *personsRepo) AddOwnership(ctx context.Context, o persons.Ownership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(o.AccessorID) == "" || strings.TrimSpace(o.PersonID) == "" {
		return errors.New("ownership accessor and person required")
	}
	r.ownerships[ownershipKey{o.AccessorType, o.AccessorID, o.PersonID}] = o
	return nil
}

func (r *personsRepo) RemoveOwnership(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ownerships, ownershipKey{accessorType, accessorID, personID})
	return nil
}

func (r *personsRepo) HasOwnership(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.ownerships[ownershipKey{accessorType, accessorID, personID}]
	return ok, nil
}

func (r *personsRepo) ListByAccessor(ctx context.Context, accessorType persons.AccessorType, accessorID string) ([]persons.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]persons.Person, 0)
	for k := range r.ownerships {
		if k.accessorType != accessorType || k.accessorID != accessorID {
			continue
		}
		if p, ok := r.byID[k.personID]; ok {
			out = append(out, p)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
