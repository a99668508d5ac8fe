package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"care-access/internal/router"
)

func TestHTTP_EndToEnd_GrantLifecycle(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	parentID := "parent-1"
	clinicianID := "clinician-1"

	// 1) Padre registra a su hijo
	personID := registerPerson(t, ts.URL, parentID, "parent", map[string]any{
		"name":       "Mia",
		"birth_date": "2019-03-14",
		"notes":      "test",
	})

	// 2) Clínico NO puede ver el perfil todavía
	{
		st, _ := doReq(t, ts.URL, "GET", "/persons/"+personID, clinicianID, "clinician", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before grant, got %d", st)
		}
	}

	// 3) Padre emite un grant limited con override de edit_notes
	grantID, token := issueGrant(t, ts.URL, parentID, personID, map[string]any{
		"grantee_type": "clinician",
		"access_level": "limited",
		"permissions": map[string]any{
			"edit_notes": true,
			// data hostil: el techo los tiene que apagar en resolución
			"delete": true,
			"share":  true,
		},
	})

	// 4) Una escuela con el token no puede reclamarlo (otra audiencia => 404)
	{
		st, _ := doReq(t, ts.URL, "POST", "/grants/claim", "school-1", "school", map[string]any{
			"token": token,
		})
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 claim by wrong actor class, got %d", st)
		}
	}

	// 5) Clínico reclama
	{
		st, body := doReq(t, ts.URL, "POST", "/grants/claim", clinicianID, "clinician", map[string]any{
			"token": token,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 claim, got %d body=%s", st, string(body))
		}
	}

	// 6) Segundo claim del mismo token => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/grants/claim", "clinician-2", "clinician", map[string]any{
			"token": token,
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 reusing token, got %d", st)
		}
	}

	// 7) Clínico ya ve el perfil
	{
		st, body := doReq(t, ts.URL, "GET", "/persons/"+personID, clinicianID, "clinician", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get person by clinician, got %d body=%s", st, string(body))
		}
	}

	// 8) Permisos efectivos: view + edit_notes, delete/share SIEMPRE false
	{
		st, body := doReq(t, ts.URL, "GET", "/persons/"+personID+"/permissions", clinicianID, "clinician", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 permissions, got %d body=%s", st, string(body))
		}
		var set struct {
			View      bool `json:"view"`
			Edit      bool `json:"edit"`
			EditNotes bool `json:"edit_notes"`
			Delete    bool `json:"delete"`
			Share     bool `json:"share"`
		}
		if err := json.Unmarshal(body, &set); err != nil {
			t.Fatalf("permissions unmarshal: %v body=%s", err, string(body))
		}
		if !set.View || !set.EditNotes {
			t.Fatalf("expected view+edit_notes, got %+v", set)
		}
		if set.Edit {
			t.Fatalf("limited must not grant edit, got %+v", set)
		}
		if set.Delete || set.Share {
			t.Fatalf("delete/share must never come from a grant, got %+v", set)
		}
	}

	// 9) Clínico puede escribir en el diario (edit_notes)
	{
		st, body := doReq(t, ts.URL, "POST", "/persons/"+personID+"/journal", clinicianID, "clinician", map[string]any{
			"title": "Session note",
			"body":  "ok",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 journal entry by clinician, got %d body=%s", st, string(body))
		}
	}

	// 10) Clínico ve sus grants
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants?status=active", clinicianID, "clinician", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my grants, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 active grant in /me/grants, got %d body=%s", len(items), string(body))
		}
	}

	// 11) Otro padre no puede revocar
	{
		st, _ := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", "parent-2", "parent", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 revoke by non-grantor, got %d", st)
		}
	}

	// 12) El padre revoca
	{
		st, body := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", parentID, "parent", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke, got %d body=%s", st, string(body))
		}
	}

	// 13) El clínico pierde el acceso inmediatamente
	{
		st, _ := doReq(t, ts.URL, "GET", "/persons/"+personID, clinicianID, "clinician", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 after revoke, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/persons/"+personID+"/journal", clinicianID, "clinician", map[string]any{
			"title": "Should fail",
			"body":  "no",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 journal write after revoke, got %d", st)
		}
	}

	// 14) El padre sigue viendo todo, obvio
	{
		st, _ := doReq(t, ts.URL, "GET", "/persons/"+personID, parentID, "parent", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get person by owner, got %d", st)
		}
	}
}

func TestHTTP_IssueGrant_RequiresOwnership(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	personID := registerPerson(t, ts.URL, "parent-1", "parent", map[string]any{
		"name": "Mia",
	})

	// un clínico sin relación no puede emitir grants sobre la persona
	st, _ := doReq(t, ts.URL, "POST", "/persons/"+personID+"/grants", "clinician-1", "clinician", map[string]any{
		"grantee_type": "school",
		"access_level": "limited",
	})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 issue by non-owner, got %d", st)
	}
}

func TestHTTP_IssueGrant_RejectsUnknownGranteeType(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	personID := registerPerson(t, ts.URL, "parent-1", "parent", map[string]any{
		"name": "Mia",
	})

	st, _ := doReq(t, ts.URL, "POST", "/persons/"+personID+"/grants", "parent-1", "parent", map[string]any{
		"grantee_type": "alien",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown grantee type, got %d", st)
	}
}

func registerPerson(t *testing.T, baseURL, userID, actorType string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/persons", userID, actorType, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register person, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("register person: missing id body=%s", string(body))
	}
	return resp.ID
}

func issueGrant(t *testing.T, baseURL, ownerID, personID string, payload map[string]any) (string, string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/persons/"+personID+"/grants", ownerID, "parent", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 issue grant, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" || resp.Token == "" {
		t.Fatalf("issue grant: missing id/token body=%s", string(body))
	}
	return resp.ID, resp.Token
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, debugActorType string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
		req.Header.Set("X-Debug-Actor-Type", debugActorType)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
