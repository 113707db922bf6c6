package worklog

import "time"

// DateLayout is the storage and export layout of Entry.DateWorked.
const DateLayout = "2006-01-02"

// Entry is one tracked unit of work owned by an account.
type Entry struct {
	ID            int64
	OwnerID       int64  `validate:"gte=1"`
	Subject       string `validate:"required,max=200"`
	Description   string
	DateWorked    time.Time `validate:"required"`
	MinutesWorked int       `validate:"gte=1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DateKey returns DateWorked in DateLayout.
func (e Entry) DateKey() string {
	return e.DateWorked.Format(DateLayout)
}
