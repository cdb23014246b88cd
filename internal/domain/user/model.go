package user

import (
	"strings"
	"time"

	"github.com/invoicegen/invoicegen/internal/types"
)

type User struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Email     string       `db:"email" json:"email"`
	Status    types.Status `db:"status" json:"-"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

func NewUser(name, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Status:    types.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail lowercases and trims an address so lookups are case insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
