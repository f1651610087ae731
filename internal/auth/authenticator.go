package auth

import (
	"context"

	"github.com/seams-estates/seams/internal/models"
)

// Authenticator verifies credentials and provisions accounts.
// The service layer depends on this interface rather than on bcrypt directly.
type Authenticator interface {
	// Authenticate verifies a username and credential and returns the user.
	// Accounts that are pending or rejected fail with ErrAccountPending or ErrAccountRejected.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// Provision hashes the credential and stores the user.
	Provision(ctx context.Context, user *models.User, credential string) error

	// ValidateCredential checks the credential against the implementation's rules.
	ValidateCredential(credential string) error
}
