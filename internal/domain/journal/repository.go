package journal

import "context"

type Repository interface {
	Create(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	ListByPerson(ctx context.Context, personID string) ([]Entry, error)
	Void(ctx context.Context, id string) error
}
