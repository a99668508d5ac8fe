package accessgrants

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"care-access/internal/domain/persons"
	"care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// PermissionsSource es el motor de decisión visto desde este módulo
// (para el endpoint de permisos efectivos que consume la UI).
type PermissionsSource interface {
	GetPermissions(ctx context.Context, accessorType persons.AccessorType, accessorID, personID string) (PermissionSet, error)
}

func RegisterRoutes(r chi.Router, svc *Service, owners OwnershipLookup, perms PermissionsSource) {
	// Acciones del owner, scoped por persona
	r.Route("/persons/{personID}/grants", func(gr chi.Router) {
		gr.Post("/", issueGrantHandler(svc))
		gr.Get("/", listGrantsByPersonHandler(svc, owners))
	})

	// Set efectivo del caller (gating fino de UI)
	r.Get("/persons/{personID}/permissions", getPermissionsHandler(perms))

	// Claim por token (el token viaja out-of-band, no en la URL)
	r.Post("/grants/claim", claimGrantHandler(svc))

	// Revocación por grant id (solo el grantor)
	r.Post("/grants/{grantID}/revoke", revokeGrantHandler(svc))

	// Delegado: ver sus grants
	r.Get("/me/grants", listMyGrantsHandler(svc))
}

type issueGrantRequest struct {
	GranteeType    string        `json:"grantee_type" enums:"parent,clinician,school"`
	AccessLevel    AccessLevel   `json:"access_level" enums:"full,limited"`
	Permissions    PermissionSet `json:"permissions"`
	TokenTTLHours  int           `json:"token_ttl_hours"` // opcional, default 72
	ExpiresAt      *time.Time    `json:"expires_at"`      // opcional, nil = indefinido
	GrantedByName  string        `json:"granted_by_name"`
	GrantedByEmail string        `json:"granted_by_email"`
}

type grantResponse struct {
	ID             string               `json:"id"`
	Token          string               `json:"token,omitempty"` // solo mientras está pending
	PersonID       string               `json:"person_id"`
	GrantorType    persons.AccessorType `json:"grantor_type"`
	GrantorID      string               `json:"grantor_id"`
	GranteeType    persons.AccessorType `json:"grantee_type"`
	GranteeID      string               `json:"grantee_id,omitempty"`
	AccessLevel    AccessLevel          `json:"access_level"`
	Permissions    PermissionSet        `json:"permissions"`
	Status         Status               `json:"status"`
	TokenExpiresAt time.Time            `json:"token_expires_at"`
	ExpiresAt      *time.Time           `json:"expires_at,omitempty"`
	GrantedByName  string               `json:"granted_by_name,omitempty"`
	GrantedByEmail string               `json:"granted_by_email,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	ClaimedAt      *time.Time           `json:"claimed_at,omitempty"`
	RevokedAt      *time.Time           `json:"revoked_at,omitempty"`
}

// issueGrantHandler godoc
// @Summary Emitir un access grant
// @Description Crea una invitación de acceso delegado sobre una persona. Solo un owner puede emitir. El token devuelto se distribuye out-of-band al invitado. Autenticación: `X-Debug-User-ID` + `X-Debug-Actor-Type` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags grants
// @Accept json
// @Produce json
// @Param personID path string true "ID de la persona"
// @Param payload body issueGrantRequest true "Clase de invitado, access level y overrides de permisos"
// @Success 201 {object} grantResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden (no sos owner)"
// @Router /persons/{personID}/grants [post]
func issueGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req issueGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		granteeType, ok := persons.ParseAccessorType(strings.TrimSpace(req.GranteeType))
		if !ok {
			http.Error(w, "grantee_type must be parent|clinician|school", http.StatusBadRequest)
			return
		}

		var ttl time.Duration
		if req.TokenTTLHours > 0 {
			ttl = time.Duration(req.TokenTTLHours) * time.Hour
		}

		claims, _ := middleware.GetClaims(r.Context())

		g, err := svc.Issue(r.Context(), IssueInput{
			GrantorType:    accessorType,
			GrantorID:      accessorID,
			GranteeType:    granteeType,
			PersonID:       chi.URLParam(r, "personID"),
			AccessLevel:    req.AccessLevel,
			Permissions:    req.Permissions,
			TokenTTL:       ttl,
			ExpiresAt:      req.ExpiresAt,
			GrantedByName:  req.GrantedByName,
			GrantedByEmail: strings.TrimSpace(firstNonEmpty(req.GrantedByEmail, claims.Email)),
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			case errors.Is(err, ErrTokenGeneration):
				http.Error(w, err.Error(), http.StatusInternalServerError)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toGrantResponse(g, true))
	}
}

func listGrantsByPersonHandler(svc *Service, owners OwnershipLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		personID := chi.URLParam(r, "personID")

		// Vista de grantor: exige ownership. 403 uniforme, sin probing.
		owner, err := owners.IsOwner(r.Context(), accessorType, accessorID, personID)
		if err != nil || !owner {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByPerson(r.Context(), personID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			// El token solo lo ve el grantor y solo mientras sirve para algo.
			out = append(out, toGrantResponse(g, g.Status == StatusPending))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPermissionsHandler(perms PermissionsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		set, err := perms.GetPermissions(r.Context(), accessorType, accessorID, chi.URLParam(r, "personID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Sin acceso devuelve el set todo-false, no 403: este endpoint es de
		// gating de UI, no un guard.
		writeJSON(w, http.StatusOK, set)
	}
}

type claimGrantRequest struct {
	Token string `json:"token"`
}

// claimGrantHandler godoc
// @Summary Reclamar una invitación
// @Description Canjea un token de invitación y bindea el grant al actor autenticado. Un token ya usado devuelve 409 ("esta invitación ya fue usada"); uno vencido, 410.
// @Tags grants
// @Accept json
// @Produce json
// @Param payload body claimGrantRequest true "Token de 8 caracteres recibido out-of-band"
// @Success 200 {object} grantResponse
// @Failure 400 {string} string "invalid json / token vacío"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "this invitation was already used"
// @Failure 410 {string} string "token expired"
// @Router /grants/claim [post]
func claimGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req claimGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.Claim(r.Context(), req.Token, accessorType, accessorID)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, ErrTokenExpired):
				http.Error(w, "token expired", http.StatusGone)
			case errors.Is(err, ErrAlreadyClaimed):
				// Esperable bajo carrera: es un conflicto visible al usuario,
				// no un error de servidor.
				http.Error(w, "this invitation was already used", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g, false))
	}
}

func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grantID := chi.URLParam(r, "grantID")
		g, err := svc.Revoke(r.Context(), grantID, accessorType, accessorID)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, ErrNotGrantor):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g, false))
	}
}

func listMyGrantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// status=active,revoked (CSV opcional); la expiración se evalúa acá,
		// en lectura, igual que en el resto del sistema.
		allowed := parseStatusFilter(r.URL.Query().Get("status"))

		items, err := svc.ListByGrantee(r.Context(), accessorType, accessorID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := time.Now()
		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			g.Status = EffectiveStatus(g, now)
			if len(allowed) > 0 {
				if _, ok := allowed[g.Status]; !ok {
					continue
				}
			}
			out = append(out, toGrantResponse(g, false))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toGrantResponse(g Grant, includeToken bool) grantResponse {
	resp := grantResponse{
		ID:             g.ID,
		PersonID:       g.PersonID,
		GrantorType:    g.GrantorType,
		GrantorID:      g.GrantorID,
		GranteeType:    g.GranteeType,
		GranteeID:      g.GranteeID,
		AccessLevel:    g.AccessLevel,
		Permissions:    g.Permissions,
		Status:         g.Status,
		TokenExpiresAt: g.TokenExpiresAt,
		ExpiresAt:      g.ExpiresAt,
		GrantedByName:  g.GrantedByName,
		GrantedByEmail: g.GrantedByEmail,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
		ClaimedAt:      g.ClaimedAt,
		RevokedAt:      g.RevokedAt,
	}
	if includeToken {
		resp.Token = g.Token
	}
	return resp
}

func parseStatusFilter(raw string) map[Status]struct{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := map[Status]struct{}{}
	for _, p := range parts {
		s := Status(strings.TrimSpace(p))
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func actorFromRequest(r *http.Request) (persons.AccessorType, string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", "", false
	}
	at, ok := persons.ParseAccessorType(claims.ActorType)
	if !ok {
		return "", "", false
	}
	return at, claims.UserID, true
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
