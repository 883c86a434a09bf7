package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password shared by every fixture account.
const DemoPassword = "password123"

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

var demoHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		panic("auth: hashing demo password: " + err.Error())
	}
	return h
})

// CheckPassword reports whether password equals DemoPassword.
func CheckPassword(password string) bool {
	if len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword(demoHash(), []byte(password)) == nil
}
