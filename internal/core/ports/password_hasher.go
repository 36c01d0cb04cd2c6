package ports

import "context"

// PasswordHasher turns plaintext credentials into salted one-way hashes.
// Implementations are deliberately slow; both methods honour ctx so a caller
// can stop waiting, and internal failures surface as errors rather than a
// false "wrong password".
type PasswordHasher interface {
	// Hash returns a salted hash. Two calls with the same plaintext produce
	// different hashes.
	Hash(ctx context.Context, plaintext string) (string, error)

	// Compare reports whether plaintext matches hash. A mismatch is
	// (false, nil); only infrastructure failures return a non-nil error.
	Compare(ctx context.Context, plaintext, hash string) (bool, error)
}
