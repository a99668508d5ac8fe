package accessgrants

import "testing"

func TestResolve_FullTemplate(t *testing.T) {
	got := Resolve(AccessLevelFull, PermissionSet{})
	want := PermissionSet{CanView: true, CanEdit: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolve_LimitedTemplate(t *testing.T) {
	got := Resolve(AccessLevelLimited, PermissionSet{})
	want := PermissionSet{CanView: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolve_ExplicitOverridesAreAdditive(t *testing.T) {
	got := Resolve(AccessLevelLimited, PermissionSet{CanEditNotes: true, CanViewDemographics: true})
	if !got.CanView || !got.CanEditNotes || !got.CanViewDemographics {
		t.Fatalf("expected additive overrides, got %+v", got)
	}
	if got.CanEdit {
		t.Fatalf("limited + notes override must not grant edit, got %+v", got)
	}
}

func TestResolve_CeilingStripsDeleteAndShare(t *testing.T) {
	// Payload hostil o data sucia: delete/share vienen en true y aun así
	// el set resuelto los apaga.
	got := Resolve(AccessLevelFull, PermissionSet{CanDelete: true, CanShare: true})
	if got.CanDelete || got.CanShare {
		t.Fatalf("expected delete/share forced false, got %+v", got)
	}
	if !got.CanView || !got.CanEdit {
		t.Fatalf("ceiling must not strip view/edit, got %+v", got)
	}
}

func TestResolve_UnknownLevel_OnlyExplicit(t *testing.T) {
	got := Resolve(AccessLevel("weird"), PermissionSet{CanView: true})
	want := PermissionSet{CanView: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestUnion_IsAdditive(t *testing.T) {
	a := PermissionSet{CanView: true}
	b := PermissionSet{CanEditNotes: true}
	got := a.Union(b)
	if !got.CanView || !got.CanEditNotes {
		t.Fatalf("expected union of both, got %+v", got)
	}
	if got != b.Union(a) {
		t.Fatalf("union must be commutative")
	}
}

func TestOwnerPermissions_IsMaximal(t *testing.T) {
	got := OwnerPermissions()
	if !(got.CanView && got.CanEdit && got.CanViewDemographics && got.CanEditNotes && got.CanDelete && got.CanShare) {
		t.Fatalf("expected all-true owner set, got %+v", got)
	}
}
