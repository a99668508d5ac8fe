package accessgrants

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"care-access/internal/domain/persons"
	"care-access/internal/ports/directory"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("grant not found")
	ErrTokenExpired    = errors.New("token expired")
	ErrAlreadyClaimed  = errors.New("token already claimed")
	ErrNotGrantor      = errors.New("not the grantor")
	ErrTokenGeneration = errors.New("token generation failed")
)

const (
	// Reintentos de generación ante colisión de token antes de fallar fuerte.
	maxTokenAttempts = 5

	defaultTokenTTL = 72 * time.Hour
)

// OwnershipLookup evita importar el índice de ownership directo (rompe ciclos).
type OwnershipLookup interface {
	IsOwner(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (bool, error)
}

type Service struct {
	repo      Repository
	owners    OwnershipLookup
	directory directory.Resolver // opcional; nil = sin lookup de display metadata
	now       func() time.Time
}

func NewService(repo Repository, owners OwnershipLookup) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		now:    time.Now,
	}
}

// WithDirectory habilita el lookup de nombre/email del grantor al emitir.
func (s *Service) WithDirectory(d directory.Resolver) *Service {
	s.directory = d
	return s
}

type IssueInput struct {
	GrantorType persons.AccessorType
	GrantorID   string

	GranteeType persons.AccessorType
	PersonID    string

	AccessLevel AccessLevel
	Permissions PermissionSet

	TokenTTL  time.Duration
	ExpiresAt *time.Time

	GrantedByName  string
	GrantedByEmail string
}

// Issue crea un grant pending con token único. Solo un owner de la persona
// puede emitir, y el grant nunca va a otorgar más que lo que el owner consintió
// (el techo lo aplica Resolve en la lectura, no confiamos en el payload).
func (s *Service) Issue(ctx context.Context, in IssueInput) (Grant, error) {
	grantorID := strings.TrimSpace(in.GrantorID)
	personID := strings.TrimSpace(in.PersonID)

	if _, ok := persons.ParseAccessorType(string(in.GrantorType)); !ok {
		return Grant{}, ErrInvalidInput
	}
	if _, ok := persons.ParseAccessorType(string(in.GranteeType)); !ok {
		return Grant{}, ErrInvalidInput
	}
	if grantorID == "" || personID == "" {
		return Grant{}, ErrInvalidInput
	}

	level := in.AccessLevel
	if level == "" {
		level = AccessLevelLimited
	}
	if level != AccessLevelFull && level != AccessLevelLimited {
		return Grant{}, ErrInvalidInput
	}

	ttl := in.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	owner, err := s.owners.IsOwner(ctx, in.GrantorType, grantorID, personID)
	if err != nil {
		return Grant{}, err
	}
	if !owner {
		return Grant{}, ErrForbidden
	}

	now := s.now()

	name := strings.TrimSpace(in.GrantedByName)
	email := strings.TrimSpace(in.GrantedByEmail)
	if (name == "" || email == "") && s.directory != nil {
		// Best-effort: el directorio puede no estar configurado o caído,
		// y la metadata de display no bloquea la emisión.
		if p, err := s.directory.Lookup(ctx, string(in.GrantorType), grantorID); err == nil {
			if name == "" {
				name = p.Name
			}
			if email == "" {
				email = p.Email
			}
		}
	}

	g := Grant{
		GrantorType:    in.GrantorType,
		GrantorID:      grantorID,
		GranteeType:    in.GranteeType,
		PersonID:       personID,
		AccessLevel:    level,
		Permissions:    in.Permissions,
		Status:         StatusPending,
		TokenExpiresAt: now.Add(ttl),
		ExpiresAt:      in.ExpiresAt,
		GrantedByName:  name,
		GrantedByEmail: email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Generar + insertar + reintentar ante colisión. La unicidad la impone el
	// repo (índice único / mapa por token), no un read-then-write con gap.
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		tok, err := newToken()
		if err != nil {
			return Grant{}, err
		}
		g.ID = uuid.NewString()
		g.Token = tok

		err = s.repo.Create(ctx, g)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, ErrDuplicateToken) {
			return Grant{}, err
		}
	}
	return Grant{}, ErrTokenGeneration
}

// Claim reclama un grant pending presentando el token. El paso pending→active
// es un update condicional atómico en el repo: con N claims concurrentes del
// mismo token, exactamente uno gana y el resto recibe ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, token string, claimantType persons.AccessorType, claimantID string) (Grant, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	claimantID = strings.TrimSpace(claimantID)

	if token == "" || claimantID == "" {
		return Grant{}, ErrInvalidInput
	}
	if _, ok := persons.ParseAccessorType(string(claimantType)); !ok {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	// La clase equivocada de actor no se entera de que el grant existe:
	// un token filtrado no confirma nada fuera de su audiencia.
	if g.GranteeType != claimantType {
		return Grant{}, ErrNotFound
	}

	now := s.now()
	switch EffectiveStatus(g, now) {
	case StatusPending:
		// ok, sigue reclamable
	case StatusExpired:
		if g.Status == StatusPending {
			// Reconciliación lazy del status guardado; la lectura ya lo
			// trató como vencido así que esto es best-effort.
			g.Status = StatusExpired
			g.UpdatedAt = now
			_ = s.repo.Update(ctx, g)
			return Grant{}, ErrTokenExpired
		}
		return Grant{}, ErrAlreadyClaimed
	default:
		return Grant{}, ErrAlreadyClaimed
	}

	claimed, err := s.repo.Claim(ctx, token, claimantID, now)
	if err != nil {
		// El update condicional no afectó filas: otro claim ganó la carrera
		// entre nuestra lectura y el write.
		return Grant{}, ErrAlreadyClaimed
	}
	return claimed, nil
}

// Revoke: solo el grantor original puede revocar. Idempotente sobre grants
// ya revocados o vencidos (no-op exitoso, no error).
func (s *Service) Revoke(ctx context.Context, grantID string, requesterType persons.AccessorType, requesterID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	requesterID = strings.TrimSpace(requesterID)

	if grantID == "" || requesterID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	if g.GrantorType != requesterType || g.GrantorID != requesterID {
		return Grant{}, ErrNotGrantor
	}

	now := s.now()
	switch EffectiveStatus(g, now) {
	case StatusRevoked, StatusExpired:
		return g, nil
	}

	g.Status = StatusRevoked
	g.UpdatedAt = now
	g.RevokedAt = &now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// ActiveGrants devuelve los grants que otorgan acceso AHORA para
// (granteeType, granteeID, personID), con expiración evaluada en lectura.
// Lo consume el motor de decisión.
func (s *Service) ActiveGrants(ctx context.Context, granteeType persons.AccessorType, granteeID, personID string) ([]Grant, error) {
	granteeID = strings.TrimSpace(granteeID)
	personID = strings.TrimSpace(personID)
	if granteeID == "" || personID == "" {
		return nil, nil
	}

	items, err := s.repo.ListByGrantee(ctx, granteeType, granteeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]Grant, 0, len(items))
	for _, g := range items {
		if g.PersonID != personID {
			continue
		}
		if !IsActive(g, now) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Grant{}, ErrInvalidInput
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *Service) ListByPerson(ctx context.Context, personID string) ([]Grant, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPerson(ctx, personID)
}

func (s *Service) ListByGrantee(ctx context.Context, granteeType persons.AccessorType, granteeID string) ([]Grant, error) {
	granteeID = strings.TrimSpace(granteeID)
	if granteeID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByGrantee(ctx, granteeType, granteeID)
}
