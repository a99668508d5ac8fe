package directory

import "context"

// Profile es la metadata de display de un actor (sin peso de seguridad).
type Profile struct {
	Name  string
	Email string
}

// Resolver resuelve el perfil de un actor contra el directorio de usuarios.
type Resolver interface {
	Lookup(ctx context.Context, accessorType, accessorID string) (Profile, error)
}
