package accessgrants

import (
	"context"
	"errors"
	"time"

	"care-access/internal/domain/persons"
)

// ErrDuplicateToken lo devuelven los adapters cuando el insert choca con la
// unicidad del token. El emisor lo usa para reintentar con otro token.
var ErrDuplicateToken = errors.New("duplicate token")

type Repository interface {
	Create(ctx context.Context, g Grant) error
	Update(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)
	GetByToken(ctx context.Context, token string) (Grant, error)

	// Claim es EL update condicional del sistema: pasa el grant a active y
	// bindea granteeID solo si el token matchea, el status sigue pending y
	// tokenExpiresAt > now — todo en un paso atómico contra el store.
	// Si la condición no se cumple (carrera perdida incluida), not found.
	Claim(ctx context.Context, token, granteeID string, now time.Time) (Grant, error)

	ListByPerson(ctx context.Context, personID string) ([]Grant, error)
	ListByGrantee(ctx context.Context, granteeType persons.AccessorType, granteeID string) ([]Grant, error)
}
