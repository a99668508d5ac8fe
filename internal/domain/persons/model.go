package persons

import "time"

// AccessorType define la clase de actor que puede relacionarse con una persona.
// @Enum parent, clinician, school
type AccessorType string

const (
	AccessorParent    AccessorType = "parent"
	AccessorClinician AccessorType = "clinician"
	AccessorSchool    AccessorType = "school"
)

// ParseAccessorType valida un accessor type que viene del borde (headers/JSON).
func ParseAccessorType(raw string) (AccessorType, bool) {
	switch AccessorType(raw) {
	case AccessorParent, AccessorClinician, AccessorSchool:
		return AccessorType(raw), true
	default:
		return "", false
	}
}

// Person es el sujeto compartido de acceso (niño / paciente / alumno).
// Acá solo importa su identidad; los datos clínicos viven en los módulos colaboradores.
type Person struct {
	ID string

	Name      string
	BirthDate *time.Time
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ownership es la relación directa, total y sin expiración entre un actor y una persona.
// Una sola relación polimórfica (accessor_type taggeado) en lugar de tres tablas
// casi idénticas parent/clinician/school.
type Ownership struct {
	AccessorType AccessorType
	AccessorID   string
	PersonID     string

	CreatedAt time.Time
}
