package auth

import (
	"context"
	"errors"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrBadCredentials is returned for any verification failure. Callers must
// not be able to tell an unknown email from a wrong password.
var ErrBadCredentials = errors.New("invalid email or password")

// Authenticator verifies that the caller owns the presented credential.
// It sits in front of session minting; the session manager itself only ever
// sees a verified email.
type Authenticator interface {
	Verify(ctx context.Context, email, password string) error
}

type passwordAuthenticator struct {
	users repository.UserRepository
}

// NewPasswordAuthenticator verifies bcrypt password hashes against the user
// store. Swap the implementation to integrate an external identity provider.
func NewPasswordAuthenticator(users repository.UserRepository) Authenticator {
	return &passwordAuthenticator{users: users}
}

func (a *passwordAuthenticator) Verify(ctx context.Context, email, password string) error {
	user, err := a.users.GetActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBadCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrBadCredentials
	}

	return nil
}
