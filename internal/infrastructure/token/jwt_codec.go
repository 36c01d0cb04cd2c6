package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lims-qc/identity-service/internal/core/domain"
	"github.com/lims-qc/identity-service/internal/core/ports"
)

// JWTCodec signs and verifies HS256 bearer tokens with a single server-held
// secret. Tokens are stateless: validity is signature + expiry, nothing else.
type JWTCodec struct {
	secret []byte
}

func NewJWTCodec(secret string) *JWTCodec {
	return &JWTCodec{secret: []byte(secret)}
}

// Issue signs a token whose payload carries the subject id, role, and an
// absolute expiry ttl from now.
func (c *JWTCodec) Issue(subject string, role domain.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify parses and validates a token string. Any failure — bad signature,
// unexpected algorithm, malformed payload, missing subject, or elapsed
// expiry — collapses into domain.ErrTokenInvalid so the transport layer
// answers 401 without leaking why.
func (c *JWTCodec) Verify(tokenString string) (*ports.TokenClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, domain.ErrTokenInvalid
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	role, _ := claims["role"].(string)

	return &ports.TokenClaims{Subject: subject, Role: domain.Role(role)}, nil
}
