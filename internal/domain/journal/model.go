package journal

import (
	"time"

	"care-access/internal/domain/persons"
)

type EntryStatus string

const (
	EntryStatusActive EntryStatus = "active"
	EntryStatusVoided EntryStatus = "voided"
)

// Author es quien registró la entrada (con su clase de actor).
type Author struct {
	Type persons.AccessorType
	ID   string
}

// Entry es una entrada del diario clínico/educativo de una persona.
// Store de registros simple: toda la lógica de autorización vive en el motor
// de acceso, este módulo solo lo consulta antes de tocar datos.
type Entry struct {
	ID       string
	PersonID string

	Title string
	Body  string

	Author Author

	OccurredAt time.Time
	RecordedAt time.Time

	Status EntryStatus
}
