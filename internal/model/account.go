package model

import (
	"context"
	"time"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	Update(ctx context.Context, id int64, update AccountUpdate) (Account, error)
}

// Account represents a stored account with authentication material.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountUpdate carries a partial account mutation. Nil fields are left
// untouched by the store.
type AccountUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the update would change nothing.
func (u AccountUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil
}
