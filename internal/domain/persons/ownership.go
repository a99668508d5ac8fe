package persons

import (
	"context"
	"strings"
)

// IsOwner es el lookup del índice de ownership: existencia pura, sin expiración
// y sin matices de permisos. La ausencia de fila es un "false" normal, no un error.
// Lo consume el motor de decisión de acceso (rompe el ciclo de imports:
// access depende de persons, nunca al revés).
func (s *Service) IsOwner(ctx context.Context, accessorType AccessorType, accessorID, personID string) (bool, error) {
	accessorID = strings.TrimSpace(accessorID)
	personID = strings.TrimSpace(personID)
	if accessorID == "" || personID == "" {
		return false, nil
	}
	if _, ok := ParseAccessorType(string(accessorType)); !ok {
		return false, nil
	}
	return s.repo.HasOwnership(ctx, accessorType, accessorID, personID)
}
