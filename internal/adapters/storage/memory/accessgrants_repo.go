package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"care-access/internal/domain/accessgrants"
	"care-access/internal/domain/persons"
)

type grantsRepo struct {
	mu   sync.RWMutex
	byID map[string]accessgrants.Grant

	// token -> grant id. Las entradas NUNCA se borran, ni cuando el grant
	// termina: la unicidad del token es contra todos los grants históricos
	// (anti-replay de tokens viejos).
	byToken map[string]string
}

func NewAccessGrantsRepo() accessgrants.Repository {
	return &grantsRepo{
		byID:    make(map[string]accessgrants.Grant),
		byToken: make(map[string]string),
	}
}

func (r *grantsRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" || g.Token == "" {
		return errors.New("grant id and token required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	if _, exists := r.byToken[g.Token]; exists {
		return accessgrants.ErrDuplicateToken
	}

	r.byID[g.ID] = g
	r.byToken[g.Token] = g.ID
	return nil
}

func (r *grantsRepo) Update(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; !exists {
		return ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *grantsRepo) GetByToken(ctx context.Context, token string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}
	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}
	return g, nil
}

// Claim: check-and-set bajo el write lock, el equivalente in-memory del
// UPDATE condicional de postgres. Dos claims concurrentes del mismo token
// serializan acá: el segundo ve status != pending y pierde.
func (r *grantsRepo) Claim(ctx context.Context, token, granteeID string, now time.Time) (accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[token]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}
	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}

	if g.Status != accessgrants.StatusPending {
		return accessgrants.Grant{}, ErrNotFound
	}
	if !g.TokenExpiresAt.IsZero() && !now.Before(g.TokenExpiresAt) {
		return accessgrants.Grant{}, ErrNotFound
	}

	claimed := now
	g.Status = accessgrants.StatusActive
	g.GranteeID = granteeID
	g.ClaimedAt = &claimed
	g.UpdatedAt = now

	r.byID[id] = g
	return g, nil
}

func (r *grantsRepo) ListByPerson(ctx context.Context, personID string) ([]accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if g.PersonID == personID {
			out = append(out, g)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *grantsRepo) ListByGrantee(ctx context.Context, granteeType persons.AccessorType, granteeID string) ([]accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if g.GranteeType == granteeType && g.GranteeID == granteeID {
			out = append(out, g)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}
