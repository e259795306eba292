package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash with a fresh random salt, so hashing the
// same secret twice never yields the same string.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnVerify spends the same bcrypt work as a real check, so unknown emails
// and wrong passwords take comparable time.
func burnVerify(plain string) {
	dummyHashOnce.Do(func() {
		h, _ := bcrypt.GenerateFromPassword([]byte("dsadmin-dummy-secret"), bcrypt.DefaultCost)
		dummyHash = string(h)
	})
	_ = VerifyPassword(plain, dummyHash)
}
