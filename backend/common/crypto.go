package common

import "golang.org/x/crypto/bcrypt"

// Password2Hash hashes a plaintext password with bcrypt.
func Password2Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}

// ValidatePasswordAndHash reports whether password matches the stored hash.
func ValidatePasswordAndHash(password string, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
