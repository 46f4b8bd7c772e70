package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
	"github.com/erazemk/packtrack/internal/store"
)

// HashPassword hashes a password with bcrypt at the given cost.
// A cost of 0 selects bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordAuthenticator accepts a secret if it is the password of any user.
// Destructive operations are gated by a password alone, without an email.
type PasswordAuthenticator struct {
	DB db.Querier
}

// Authenticate returns the first user whose password matches secret.
func (a PasswordAuthenticator) Authenticate(ctx context.Context, secret string) (*model.User, error) {
	if secret == "" {
		return nil, apperr.Unauthorizedf("password required")
	}

	users, err := store.ListUsers(ctx, a.DB)
	if err != nil {
		return nil, apperr.Storage("listing users", err)
	}
	for i := range users {
		if CheckPassword(users[i].PasswordHash, secret) {
			return &users[i], nil
		}
	}
	return nil, apperr.Unauthorizedf("invalid password")
}

// Login checks an email and password pair.
func Login(ctx context.Context, q db.Querier, email, password string) (*model.User, error) {
	user, err := store.GetUserByEmail(ctx, q, email)
	if err != nil {
		return nil, apperr.Storage("looking up user", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthorizedf("invalid credentials")
	}
	return user, nil
}
