package helpers

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a one-way bcrypt digest from the plaintext. Policy
// (minimum length) is enforced by the caller; empty input hashes like any
// other string.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword reports whether plain matches the stored digest.
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
