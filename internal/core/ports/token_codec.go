package ports

import (
	"time"

	"github.com/lims-qc/identity-service/internal/core/domain"
)

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	Subject string
	Role    domain.Role
}

// TokenCodec signs and verifies compact time-limited bearer tokens. Validity
// is purely a function of signature and expiry: there is no revocation list,
// so deactivating an account does not invalidate tokens already issued.
type TokenCodec interface {
	// Issue signs a token carrying the subject id and role, expiring after ttl.
	Issue(subject string, role domain.Role, ttl time.Duration) (string, error)

	// Verify returns domain.ErrTokenInvalid when the signature is wrong, the
	// payload is malformed, the subject is missing, or the token has expired.
	Verify(token string) (*TokenClaims, error)
}
