package teacher

import (
	"database/sql"
	"time"
)

// Teacher represents a teacher who plans courses and receives lesson reminders.
type Teacher struct {
	ID         int64
	TelegramID int64
	FirstName  string
	LastName   sql.NullString // To handle optional last name
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName joins first and last name when the latter is set.
func (t *Teacher) FullName() string {
	if t.LastName.Valid && t.LastName.String != "" {
		return t.FirstName + " " + t.LastName.String
	}
	return t.FirstName
}
