package domain

import "time"

// Item is a pantry inventory entry owned by a team. The wider CRUD domain
// lives outside this core; items exist here as the representative resource
// gated by the authorization guard and the mutation rate limits.
type Item struct {
	ID        string
	TeamID    string
	CreatedBy string
	Name      string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
