package teacher

import (
	"context"
)

// ListFilter selects which teachers List returns.
type ListFilter int

const (
	OnlyActive ListFilter = iota // Teachers who receive lesson reminders
	Everyone                     // Including deactivated teachers
)

func (f ListFilter) String() string {
	if f == Everyone {
		return "all"
	}
	return "active"
}

// Repository persists teachers. Teachers are never deleted, only deactivated,
// so their courses keep a valid owner.
type Repository interface {
	Create(ctx context.Context, teacher *Teacher) error
	GetByID(ctx context.Context, id int64) (*Teacher, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*Teacher, error)
	Update(ctx context.Context, teacher *Teacher) error // FirstName, LastName, IsActive
	List(ctx context.Context, filter ListFilter) ([]*Teacher, error)
}
