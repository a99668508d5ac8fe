package accessgrants

import (
	"time"

	"care-access/internal/domain/persons"
)

// AccessLevel es el tier grueso que define el template de permisos por defecto.
// @Enum full, limited
type AccessLevel string

const (
	AccessLevelFull    AccessLevel = "full"
	AccessLevelLimited AccessLevel = "limited"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// Grant es la unidad de delegación: acceso acotado en tiempo y en permisos,
// emitido por un owner y reclamado con un token de un solo uso.
type Grant struct {
	ID string

	// Token de claim: opaco, único entre TODOS los grants (históricos incluidos)
	// para que un token viejo nunca pueda re-usarse contra otro grant.
	Token string

	GrantorType persons.AccessorType // quien comparte
	GrantorID   string

	GranteeType persons.AccessorType // clase de actor que puede reclamar
	GranteeID   string               // vacío hasta el claim (invitación abierta)

	PersonID string

	AccessLevel AccessLevel
	Permissions PermissionSet // overrides explícitos sobre el template

	Status Status

	// Deadline para reclamar el token; independiente de ExpiresAt.
	TokenExpiresAt time.Time
	// Deadline de la ventana de acceso una vez activo. nil = indefinido.
	ExpiresAt *time.Time

	// Metadata de display, sin peso de seguridad.
	GrantedByName  string
	GrantedByEmail string

	CreatedAt time.Time
	UpdatedAt time.Time
	ClaimedAt *time.Time
	RevokedAt *time.Time
}

// EffectiveStatus evalúa expiración en tiempo de lectura: un grant vencido
// no otorga nada aunque el status guardado no se haya reconciliado todavía.
func EffectiveStatus(g Grant, now time.Time) Status {
	switch g.Status {
	case StatusPending:
		if !g.TokenExpiresAt.IsZero() && !now.Before(g.TokenExpiresAt) {
			return StatusExpired
		}
	case StatusActive:
		if g.ExpiresAt != nil && !now.Before(*g.ExpiresAt) {
			return StatusExpired
		}
	}
	return g.Status
}

// IsActive responde si el grant otorga acceso ahora mismo.
func IsActive(g Grant, now time.Time) bool {
	return EffectiveStatus(g, now) == StatusActive
}
