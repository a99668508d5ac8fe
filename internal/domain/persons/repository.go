package persons

import "context"

type Repository interface {
	Create(ctx context.Context, p Person) error
	GetByID(ctx context.Context, id string) (Person, error)

	AddOwnership(ctx context.Context, o Ownership) error
	RemoveOwnership(ctx context.Context, accessorType AccessorType, accessorID, personID string) error
	HasOwnership(ctx context.Context, accessorType AccessorType, accessorID, personID string) (bool, error)
	ListByAccessor(ctx context.Context, accessorType AccessorType, accessorID string) ([]Person, error)
}
