package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"care-access/internal/domain/accessgrants"
	"care-access/internal/domain/persons"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("entry not found")
)

// AccessGuard es el contrato del motor de decisión que este colaborador
// consulta antes de CUALQUIER lectura o mutación.
type AccessGuard interface {
	RequireAccess(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) error
	GetPermissions(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (accessgrants.PermissionSet, error)
}

type Service struct {
	repo  Repository
	guard AccessGuard
	now   func() time.Time
}

func NewService(repo Repository, guard AccessGuard) *Service {
	return &Service{
		repo:  repo,
		guard: guard,
		now:   time.Now,
	}
}

type CreateInput struct {
	Title      string
	Body       string
	OccurredAt time.Time
}

// Create registra una entrada. Guard primero (sin disclosure parcial):
// si el actor no pasa RequireAccess no se lee ni escribe nada.
// Escribir exige edit o edit_notes; view solo no alcanza.
func (s *Service) Create(ctx context.Context, personID string, author Author, in CreateInput) (Entry, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" || strings.TrimSpace(author.ID) == "" {
		return Entry{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" {
		return Entry{}, ErrInvalidInput
	}

	if err := s.guard.RequireAccess(ctx, author.Type, author.ID, personID); err != nil {
		return Entry{}, err
	}
	perms, err := s.guard.GetPermissions(ctx, author.Type, author.ID, personID)
	if err != nil {
		return Entry{}, err
	}
	if !perms.CanEdit && !perms.CanEditNotes {
		return Entry{}, accessgrants.ErrForbidden
	}

	now := s.now()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	e := Entry{
		ID:         uuid.NewString(),
		PersonID:   personID,
		Title:      strings.TrimSpace(in.Title),
		Body:       strings.TrimSpace(in.Body),
		Author:     author,
		OccurredAt: occurred,
		RecordedAt: now,
		Status:     EntryStatusActive,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ListByPerson devuelve el diario de una persona, guard primero.
func (s *Service) ListByPerson(ctx context.Context, personID string, reader Author) ([]Entry, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" || strings.TrimSpace(reader.ID) == "" {
		return nil, ErrInvalidInput
	}

	if err := s.guard.RequireAccess(ctx, reader.Type, reader.ID, personID); err != nil {
		return nil, err
	}
	return s.repo.ListByPerson(ctx, personID)
}

// Void anula una entrada (no se borra: delete queda reservado a owners,
// y ni siquiera lo exponemos acá). Exige capacidad de edición.
func (s *Service) Void(ctx context.Context, personID, entryID string, actor Author) (Entry, error) {
	personID = strings.TrimSpace(personID)
	entryID = strings.TrimSpace(entryID)
	if personID == "" || entryID == "" || strings.TrimSpace(actor.ID) == "" {
		return Entry{}, ErrInvalidInput
	}

	if err := s.guard.RequireAccess(ctx, actor.Type, actor.ID, personID); err != nil {
		return Entry{}, err
	}
	perms, err := s.guard.GetPermissions(ctx, actor.Type, actor.ID, personID)
	if err != nil {
		return Entry{}, err
	}
	if !perms.CanEdit {
		return Entry{}, accessgrants.ErrForbidden
	}

	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil || e.PersonID != personID {
		return Entry{}, ErrNotFound
	}

	if err := s.repo.Void(ctx, entryID); err != nil {
		return Entry{}, err
	}
	return s.repo.GetByID(ctx, entryID)
}
