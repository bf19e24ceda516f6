package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost balances digest strength against login latency.
const bcryptCost = 12

// dummyDigest is compared against when the username does not exist, so
// a login attempt costs one hash comparison whether or not the account
// is real. It is the digest of an unguessable random string.
const dummyDigest = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// HashPassword produces a one-way bcrypt digest. Plaintext is never
// stored or transmitted.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether password matches the stored digest.
func VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
