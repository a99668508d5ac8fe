package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"care-access/internal/domain/access"
	"care-access/internal/domain/accessgrants"
	"care-access/internal/domain/persons"
)

type testRepo struct {
	byID map[string]Entry
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Entry{}}
}

func (r *testRepo) Create(ctx context.Context, e Entry) error {
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, errors.New("repo: not found")
	}
	return e, nil
}

func (r *testRepo) ListByPerson(ctx context.Context, personID string) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, e := range r.byID {
		if e.PersonID == personID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *testRepo) Void(ctx context.Context, id string) error {
	e, ok := r.byID[id]
	if !ok {
		return errors.New("repo: not found")
	}
	e.Status = EntryStatusVoided
	r.byID[id] = e
	return nil
}

// testGuard: permisos fijos por (type, id); sin entrada => denegado.
type testGuard struct {
	perms map[[2]string]accessgrants.PermissionSet
}

func (g *testGuard) RequireAccess(ctx context.Context, at persons.AccessorType, accessorID, personID string) error {
	if _, ok := g.perms[[2]string{string(at), accessorID}]; !ok {
		return access.ErrAccessDenied
	}
	return nil
}

func (g *testGuard) GetPermissions(ctx context.Context, at persons.AccessorType, accessorID, personID string) (accessgrants.PermissionSet, error) {
	return g.perms[[2]string{string(at), accessorID}], nil
}

func TestService_Create_DeniedBeforeTouchingRepo(t *testing.T) {
	repo := newTestRepo()
	guard := &testGuard{perms: map[[2]string]accessgrants.PermissionSet{}}
	svc := NewService(repo, guard)

	_, err := svc.Create(context.Background(), "person-1", Author{Type: persons.AccessorClinician, ID: "clinician-1"}, CreateInput{
		Title: "Nope",
	})
	if !errors.Is(err, access.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected repo untouched on denial")
	}
}

func TestService_Create_ViewOnlyCannotWrite(t *testing.T) {
	repo := newTestRepo()
	guard := &testGuard{perms: map[[2]string]accessgrants.PermissionSet{
		{"school", "school-1"}: {CanView: true},
	}}
	svc := NewService(repo, guard)

	_, err := svc.Create(context.Background(), "person-1", Author{Type: persons.AccessorSchool, ID: "school-1"}, CreateInput{
		Title: "Nope",
	})
	if !errors.Is(err, accessgrants.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for view-only writer, got %v", err)
	}
}

func TestService_Create_EditNotesIsEnough(t *testing.T) {
	repo := newTestRepo()
	guard := &testGuard{perms: map[[2]string]accessgrants.PermissionSet{
		{"clinician", "clinician-1"}: {CanView: true, CanEditNotes: true},
	}}
	svc := NewService(repo, guard)

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	e, err := svc.Create(context.Background(), "person-1", Author{Type: persons.AccessorClinician, ID: "clinician-1"}, CreateInput{
		Title: "  Session note  ",
		Body:  "ok",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if e.Title != "Session note" {
		t.Fatalf("expected trimmed title, got %q", e.Title)
	}
	if e.Status != EntryStatusActive {
		t.Fatalf("expected active, got %s", e.Status)
	}
	// sin occurred_at explícito cae en el momento del registro
	if !e.OccurredAt.Equal(now) || !e.RecordedAt.Equal(now) {
		t.Fatalf("expected occurred/recorded = now, got %v / %v", e.OccurredAt, e.RecordedAt)
	}
}

func TestService_Void_RequiresEditAndMatchingPerson(t *testing.T) {
	repo := newTestRepo()
	guard := &testGuard{perms: map[[2]string]accessgrants.PermissionSet{
		{"parent", "parent-1"}:       {CanView: true, CanEdit: true},
		{"clinician", "clinician-1"}: {CanView: true, CanEditNotes: true},
	}}
	svc := NewService(repo, guard)

	e, err := svc.Create(context.Background(), "person-1", Author{Type: persons.AccessorParent, ID: "parent-1"}, CreateInput{
		Title: "Entry",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// edit_notes no alcanza para anular
	_, err = svc.Void(context.Background(), "person-1", e.ID, Author{Type: persons.AccessorClinician, ID: "clinician-1"})
	if !errors.Is(err, accessgrants.ErrForbidden) {
		t.Fatalf("expected ErrForbidden voiding with edit_notes only, got %v", err)
	}

	// entryID de otra persona => not found, sin filtrar nada
	_, err = svc.Void(context.Background(), "person-2", e.ID, Author{Type: persons.AccessorParent, ID: "parent-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for person mismatch, got %v", err)
	}

	voided, err := svc.Void(context.Background(), "person-1", e.ID, Author{Type: persons.AccessorParent, ID: "parent-1"})
	if err != nil {
		t.Fatalf("Void error: %v", err)
	}
	if voided.Status != EntryStatusVoided {
		t.Fatalf("expected voided, got %s", voided.Status)
	}
}
