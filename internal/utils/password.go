package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of the plaintext using the given
// cost. The hash embeds its own salt; the plaintext is never stored.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash and a plaintext candidate. The
// comparison never reveals how much of the password matched.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
