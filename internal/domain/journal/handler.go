package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"care-access/internal/domain/access"
	"care-access/internal/domain/accessgrants"
	"care-access/internal/domain/persons"
	"care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/persons/{personID}/journal", func(jr chi.Router) {
		jr.Post("/", createEntryHandler(svc))
		jr.Get("/", listEntriesHandler(svc))

		// Anular (void) entrada; no hay delete: eso queda para owners y
		// ni siquiera lo exponemos en este colaborador.
		jr.Post("/{entryID}/void", voidEntryHandler(svc))
	})
}

type createEntryRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	OccurredAt string `json:"occurred_at"` // RFC3339 opcional
}

type entryResponse struct {
	ID         string               `json:"id"`
	PersonID   string               `json:"person_id"`
	Title      string               `json:"title"`
	Body       string               `json:"body"`
	AuthorType persons.AccessorType `json:"author_type"`
	AuthorID   string               `json:"author_id"`
	OccurredAt time.Time            `json:"occurred_at"`
	RecordedAt time.Time            `json:"recorded_at"`
	Status     EntryStatus          `json:"status"`
}

// createEntryHandler godoc
// @Summary Crear entrada de diario
// @Description Registra una entrada en el diario clínico/educativo de la persona. El guard de acceso corre antes de tocar datos; escribir exige capacidad de edición (edit o edit_notes).
// @Tags journal
// @Accept json
// @Produce json
// @Param personID path string true "ID de la persona"
// @Param payload body createEntryRequest true "Título, cuerpo y occurred_at opcional (RFC3339)"
// @Success 201 {object} entryResponse
// @Failure 400 {string} string "invalid json / occurred_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /persons/{personID}/journal [post]
func createEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, ok := authorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var occurred time.Time
		if strings.TrimSpace(req.OccurredAt) != "" {
			t, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
				return
			}
			occurred = t
		}

		e, err := svc.Create(r.Context(), chi.URLParam(r, "personID"), author, CreateInput{
			Title:      req.Title,
			Body:       req.Body,
			OccurredAt: occurred,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEntryResponse(e))
	}
}

func listEntriesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reader, ok := authorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByPerson(r.Context(), chi.URLParam(r, "personID"), reader)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func voidEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := authorFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.Void(r.Context(), chi.URLParam(r, "personID"), chi.URLParam(r, "entryID"), actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEntryResponse(e))
	}
}

// writeServiceError traduce la taxonomía del dominio a HTTP en este borde.
// ACCESS_DENIED => 403 genérico, sin distinguir existencia.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, access.ErrAccessDenied), errors.Is(err, accessgrants.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:         e.ID,
		PersonID:   e.PersonID,
		Title:      e.Title,
		Body:       e.Body,
		AuthorType: e.Author.Type,
		AuthorID:   e.Author.ID,
		OccurredAt: e.OccurredAt,
		RecordedAt: e.RecordedAt,
		Status:     e.Status,
	}
}

func authorFromRequest(r *http.Request) (Author, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return Author{}, false
	}
	at, ok := persons.ParseAccessorType(claims.ActorType)
	if !ok {
		return Author{}, false
	}
	return Author{Type: at, ID: claims.UserID}, true
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
