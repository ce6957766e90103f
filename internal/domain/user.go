package domain

import (
	"time"

	"github.com/google/uuid"
)

// User owns one evidence trail. All engine runs are scoped to a single user.
type User struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
