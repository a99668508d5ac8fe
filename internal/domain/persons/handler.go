package persons

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// AccessGuard es el motor de decisión visto desde este módulo.
// Interface local para no importar el paquete access (rompe ciclos).
type AccessGuard interface {
	RequireAccess(ctx context.Context, accessorType AccessorType, accessorID, personID string) error
}

func RegisterRoutes(r chi.Router, svc *Service, guard AccessGuard) {
	r.Route("/persons", func(pr chi.Router) {
		pr.Post("/", registerPersonHandler(svc))
		pr.Get("/", listPersonsHandler(svc))

		// Perfil de persona (owner o delegado con grant activo)
		pr.Get("/{personID}", getPersonHandler(svc, guard))

		// Fin de la relación (baja de matrícula / cierre de caso)
		pr.Delete("/{personID}/ownerships", unenrollHandler(svc))
	})
}

type registerPersonRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Notes     string `json:"notes"`
}

type personResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func registerPersonHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerPersonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		p, err := svc.Register(r.Context(), accessorType, accessorID, RegisterInput{
			Name:      req.Name,
			BirthDate: bd,
			Notes:     req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toPersonResponse(p))
	}
}

func listPersonsHandler(svc *Service) http.HandlerFunc {
	// Solo las personas con ownership propia (lo compartido va por /me/grants)
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByAccessor(r.Context(), accessorType, accessorID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]personResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPersonResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPersonHandler(svc *Service, guard AccessGuard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		personID := chi.URLParam(r, "personID")

		// Guard ANTES de leer nada: la denegación no distingue
		// "no existe" de "no tenés acceso" (403 uniforme).
		if err := guard.RequireAccess(r.Context(), accessorType, accessorID, personID); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		p, err := svc.GetByID(r.Context(), personID)
		if err != nil {
			// Con guard aprobado, no encontrarla es inconsistencia interna.
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toPersonResponse(p))
	}
}

func unenrollHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessorType, accessorID, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		personID := chi.URLParam(r, "personID")
		if err := svc.Unenroll(r.Context(), accessorType, accessorID, personID); err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func toPersonResponse(p Person) personResponse {
	return personResponse{
		ID:        p.ID,
		Name:      p.Name,
		BirthDate: p.BirthDate,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// actorFromRequest saca (accessorType, accessorID) de los claims del contexto.
func actorFromRequest(r *http.Request) (AccessorType, string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", "", false
	}
	at, ok := ParseAccessorType(claims.ActorType)
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
