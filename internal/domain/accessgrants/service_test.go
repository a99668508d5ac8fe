package accessgrants

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"care-access/internal/domain/persons"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID    map[string]Grant
	byToken map[string]string

	// si > 0, los primeros N Create fallan con ErrDuplicateToken
	failCreates int
}

func newTestRepo() *testRepo {
	return &testRepo{
		byID:    map[string]Grant{},
		byToken: map[string]string{},
	}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	if r.failCreates > 0 {
		r.failCreates--
		return ErrDuplicateToken
	}
	if g.ID == "" || g.Token == "" {
		return errors.New("repo: id and token required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	if _, ok := r.byToken[g.Token]; ok {
		return ErrDuplicateToken
	}
	r.byID[g.ID] = g
	r.byToken[g.Token] = g.ID
	return nil
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	if _, ok := r.byID[g.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return g, nil
}

func (r *testRepo) GetByToken(ctx context.Context, token string) (Grant, error) {
	id, ok := r.byToken[token]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return r.byID[id], nil
}

func (r *testRepo) Claim(ctx context.Context, token, granteeID string, now time.Time) (Grant, error) {
	id, ok := r.byToken[token]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	g := r.byID[id]
	if g.Status != StatusPending {
		return Grant{}, errRepoNotFound
	}
	if !g.TokenExpiresAt.IsZero() && !now.Before(g.TokenExpiresAt) {
		return Grant{}, errRepoNotFound
	}
	claimed := now
	g.Status = StatusActive
	g.GranteeID = granteeID
	g.ClaimedAt = &claimed
	g.UpdatedAt = now
	r.byID[id] = g
	return g, nil
}

func (r *testRepo) ListByPerson(ctx context.Context, personID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.PersonID == personID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByGrantee(ctx context.Context, granteeType persons.AccessorType, granteeID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.GranteeType == granteeType && g.GranteeID == granteeID {
			out = append(out, g)
		}
	}
	return out, nil
}

// testOwners: set fijo de tuplas (type, id, person) que cuentan como owner.
type testOwners struct {
	owns map[[3]string]bool
}

func newTestOwners() *testOwners {
	return &testOwners{owns: map[[3]string]bool{}}
}

func (o *testOwners) add(at persons.AccessorType, accessorID, personID string) {
	o.owns[[3]string{string(at), accessorID, personID}] = true
}

func (o *testOwners) IsOwner(ctx context.Context, at persons.AccessorType, accessorID, personID string) (bool, error) {
	return o.owns[[3]string{string(at), accessorID, personID}], nil
}

func newTestService(repo *testRepo, owners *testOwners, now time.Time) *Service {
	svc := NewService(repo, owners)
	svc.now = func() time.Time { return now }
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestService_Issue_RequiresOwnership(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	_, err := svc.Issue(context.Background(), IssueInput{
		GrantorType: persons.AccessorParent,
		GrantorID:   "parent-1",
		GranteeType: persons.AccessorClinician,
		PersonID:    "person-1",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_Issue_PendingGrantWithToken(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, owners, now)

	g, err := svc.Issue(context.Background(), IssueInput{
		GrantorType: persons.AccessorParent,
		GrantorID:   "parent-1",
		GranteeType: persons.AccessorClinician,
		PersonID:    "person-1",
		AccessLevel: AccessLevelLimited,
	})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if g.Status != StatusPending {
		t.Fatalf("expected pending, got %s", g.Status)
	}
	if len(g.Token) != tokenLength {
		t.Fatalf("expected token of %d chars, got %q", tokenLength, g.Token)
	}
	for _, c := range g.Token {
		if !strings.ContainsRune(tokenAlphabet, c) {
			t.Fatalf("token %q has char outside alphabet", g.Token)
		}
	}
	// default: 72h de ventana de claim
	if want := now.Add(72 * time.Hour); !g.TokenExpiresAt.Equal(want) {
		t.Fatalf("expected TokenExpiresAt %v, got %v", want, g.TokenExpiresAt)
	}
	if g.GranteeID != "" {
		t.Fatalf("expected unbound grantee, got %q", g.GranteeID)
	}
}

func TestService_Issue_DefaultsToLimited(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	g, err := svc.Issue(context.Background(), IssueInput{
		GrantorType: persons.AccessorParent,
		GrantorID:   "parent-1",
		GranteeType: persons.AccessorSchool,
		PersonID:    "person-1",
	})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if g.AccessLevel != AccessLevelLimited {
		t.Fatalf("expected limited default, got %s", g.AccessLevel)
	}
}

func TestService_Issue_RetriesOnDuplicateToken(t *testing.T) {
	repo := newTestRepo()
	repo.failCreates = 2 // las dos primeras colisionan

	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	g, err := svc.Issue(context.Background(), IssueInput{
		GrantorType: persons.AccessorParent,
		GrantorID:   "parent-1",
		GranteeType: persons.AccessorClinician,
		PersonID:    "person-1",
	})
	if err != nil {
		t.Fatalf("Issue error after retries: %v", err)
	}
	if g.Token == "" {
		t.Fatalf("expected token after retries")
	}
}

func TestService_Issue_FailsHardWhenTokensExhausted(t *testing.T) {
	repo := newTestRepo()
	repo.failCreates = maxTokenAttempts // todas colisionan

	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	_, err := svc.Issue(context.Background(), IssueInput{
		GrantorType: persons.AccessorParent,
		GrantorID:   "parent-1",
		GranteeType: persons.AccessorClinician,
		PersonID:    "person-1",
	})
	if !errors.Is(err, ErrTokenGeneration) {
		t.Fatalf("expected ErrTokenGeneration, got %v", err)
	}
}

func issuePending(t *testing.T, svc *Service, granteeType persons.AccessorType) Grant {
	t.Helper()
	g, err := svc.Issue(context.Background(), IssueInput{
		GrantorType: persons.AccessorParent,
		GrantorID:   "parent-1",
		GranteeType: granteeType,
		PersonID:    "person-1",
		AccessLevel: AccessLevelLimited,
	})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	return g
}

func TestService_Claim_BindsGranteeAndActivates(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, owners, now)

	g := issuePending(t, svc, persons.AccessorClinician)

	later := now.Add(1 * time.Hour)
	svc.now = func() time.Time { return later }

	claimed, err := svc.Claim(context.Background(), g.Token, persons.AccessorClinician, "clinician-1")
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if claimed.Status != StatusActive {
		t.Fatalf("expected active, got %s", claimed.Status)
	}
	if claimed.GranteeID != "clinician-1" {
		t.Fatalf("expected grantee bound, got %q", claimed.GranteeID)
	}
	if claimed.ClaimedAt == nil || !claimed.ClaimedAt.Equal(later) {
		t.Fatalf("expected ClaimedAt = claim time, got %v", claimed.ClaimedAt)
	}
}

func TestService_Claim_TokenIsCaseInsensitive(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	g := issuePending(t, svc, persons.AccessorClinician)

	lower := "  " + strings.ToLower(g.Token) + " "
	claimed, err := svc.Claim(context.Background(), lower, persons.AccessorClinician, "clinician-1")
	if err != nil {
		t.Fatalf("Claim with lowercase token error: %v", err)
	}
	if claimed.ID != g.ID {
		t.Fatalf("expected same grant")
	}
}

func TestService_Claim_WrongGranteeType_NotFound(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	g := issuePending(t, svc, persons.AccessorClinician)

	// Una escuela con un token de clínico no se entera de que el grant existe
	_, err := svc.Claim(context.Background(), g.Token, persons.AccessorSchool, "school-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong grantee type, got %v", err)
	}
}

func TestService_Claim_UnknownToken_NotFound(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	_, err := svc.Claim(context.Background(), "NOPE1234", persons.AccessorClinician, "clinician-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Claim_ExpiredToken_GoneAndReconciled(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, owners, now)

	g := issuePending(t, svc, persons.AccessorClinician)

	// 73h después: la ventana de claim (72h) ya cerró
	svc.now = func() time.Time { return now.Add(73 * time.Hour) }

	_, err := svc.Claim(context.Background(), g.Token, persons.AccessorClinician, "clinician-1")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// reconciliación lazy: el status guardado quedó expired
	stored, _ := repo.GetByID(context.Background(), g.ID)
	if stored.Status != StatusExpired {
		t.Fatalf("expected stored status expired, got %s", stored.Status)
	}
}

func TestService_Claim_SecondClaim_AlreadyClaimed(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	g := issuePending(t, svc, persons.AccessorClinician)

	if _, err := svc.Claim(context.Background(), g.Token, persons.AccessorClinician, "clinician-1"); err != nil {
		t.Fatalf("Claim #1 error: %v", err)
	}

	_, err := svc.Claim(context.Background(), g.Token, persons.AccessorClinician, "clinician-2")
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestService_Revoke_OnlyGrantor(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")
	svc := newTestService(repo, owners, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	g := issuePending(t, svc, persons.AccessorClinician)

	_, err := svc.Revoke(context.Background(), g.ID, persons.AccessorParent, "parent-2")
	if !errors.Is(err, ErrNotGrantor) {
		t.Fatalf("expected ErrNotGrantor, got %v", err)
	}

	// misma id pero otra clase de actor tampoco pasa
	_, err = svc.Revoke(context.Background(), g.ID, persons.AccessorClinician, "parent-1")
	if !errors.Is(err, ErrNotGrantor) {
		t.Fatalf("expected ErrNotGrantor for wrong type, got %v", err)
	}
}

func TestService_Revoke_Idempotent(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, owners, now)

	g := issuePending(t, svc, persons.AccessorClinician)

	r1, err := svc.Revoke(context.Background(), g.ID, persons.AccessorParent, "parent-1")
	if err != nil {
		t.Fatalf("Revoke #1 error: %v", err)
	}
	if r1.Status != StatusRevoked {
		t.Fatalf("expected revoked, got %s", r1.Status)
	}
	if r1.RevokedAt == nil {
		t.Fatalf("expected RevokedAt set")
	}

	// idempotente
	r2, err := svc.Revoke(context.Background(), g.ID, persons.AccessorParent, "parent-1")
	if err != nil {
		t.Fatalf("Revoke #2 error: %v", err)
	}
	if r2.Status != StatusRevoked {
		t.Fatalf("expected revoked after idempotent revoke, got %s", r2.Status)
	}
}

func TestService_ActiveGrants_SkipsExpiredWindow(t *testing.T) {
	repo := newTestRepo()
	owners := newTestOwners()
	owners.add(persons.AccessorParent, "parent-1", "person-1")

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, owners, now)

	exp := now.Add(24 * time.Hour)
	g, err := svc.Issue(context.Background(), IssueInput{
		GrantorType: persons.AccessorParent,
		GrantorID:   "parent-1",
		GranteeType: persons.AccessorClinician,
		PersonID:    "person-1",
		ExpiresAt:   &exp,
	})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := svc.Claim(context.Background(), g.Token, persons.AccessorClinician, "clinician-1"); err != nil {
		t.Fatalf("Claim error: %v", err)
	}

	// dentro de la ventana: otorga
	active, err := svc.ActiveGrants(context.Background(), persons.AccessorClinician, "clinician-1", "person-1")
	if err != nil {
		t.Fatalf("ActiveGrants error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active grant, got %d", len(active))
	}

	// 25h después: la ventana venció, sin escribir nada cambió la respuesta
	svc.now = func() time.Time { return now.Add(25 * time.Hour) }
	active, err = svc.ActiveGrants(context.Background(), persons.AccessorClinician, "clinician-1", "person-1")
	if err != nil {
		t.Fatalf("ActiveGrants error: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected 0 active grants past window, got %d", len(active))
	}
}
