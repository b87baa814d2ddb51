package types

import "time"

// College is an institution students and TnP officers belong to.
// Colleges are created by the seed process and immutable afterwards.
type College struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	City      string    `json:"city,omitempty" db:"city"`
	State     string    `json:"state,omitempty" db:"state"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
