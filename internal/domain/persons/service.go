package persons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("person not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RegisterInput struct {
	Name      string
	BirthDate *time.Time
	Notes     string
}

// Register crea la persona y la ownership del actor que la registra,
// en un solo paso (un padre agrega a su hijo, una escuela matricula a un alumno,
// un clínico acepta una derivación).
func (s *Service) Register(ctx context.Context, accessorType AccessorType, accessorID string, in RegisterInput) (Person, error) {
	accessorID = strings.TrimSpace(accessorID)
	if _, ok := ParseAccessorType(string(accessorType)); !ok {
		return Person{}, ErrInvalidInput
	}
	if accessorID == "" || strings.TrimSpace(in.Name) == "" {
		return Person{}, ErrInvalidInput
	}

	now := s.now()
	p := Person{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		BirthDate: in.BirthDate,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Person{}, err
	}
	if err := s.repo.AddOwnership(ctx, Ownership{
		AccessorType: accessorType,
		AccessorID:   accessorID,
		PersonID:     p.ID,
		CreatedAt:    now,
	}); err != nil {
		return Person{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Person{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Person{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByAccessor(ctx context.Context, accessorType AccessorType, accessorID string) ([]Person, error) {
	accessorID = strings.TrimSpace(accessorID)
	if accessorID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByAccessor(ctx, accessorType, accessorID)
}

// Enroll agrega una ownership sobre una persona ya existente.
// No se expone por HTTP: las altas formales (matrícula, derivación) entran por acá
// desde el flujo de registro correspondiente, nunca por auto-servicio.
func (s *Service) Enroll(ctx context.Context, accessorType AccessorType, accessorID, personID string) error {
	accessorID = strings.TrimSpace(accessorID)
	personID = strings.TrimSpace(personID)
	if _, ok := ParseAccessorType(string(accessorType)); !ok {
		return ErrInvalidInput
	}
	if accessorID == "" || personID == "" {
		return ErrInvalidInput
	}
	if _, err := s.repo.GetByID(ctx, personID); err != nil {
		return ErrNotFound
	}

	// Duplicados son inofensivos pero no deben multiplicar permisos:
	// la existencia es binaria, así que chequeamos antes de insertar.
	has, err := s.repo.HasOwnership(ctx, accessorType, accessorID, personID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return s.repo.AddOwnership(ctx, Ownership{
		AccessorType: accessorType,
		AccessorID:   accessorID,
		PersonID:     personID,
		CreatedAt:    s.now(),
	})
}

// Unenroll termina la relación (baja de matrícula, cierre de caso).
// Idempotente: sacar una ownership que no existe no es error.
func (s *Service) Unenroll(ctx context.Context, accessorType AccessorType, accessorID, personID string) error {
	accessorID = strings.TrimSpace(accessorID)
	personID = strings.TrimSpace(personID)
	if accessorID == "" || personID == "" {
		return ErrInvalidInput
	}
	return s.repo.RemoveOwnership(ctx, accessorType, accessorID, personID)
}
