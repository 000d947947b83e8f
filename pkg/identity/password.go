package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLength  = 32
	saltLength       = 16
)

// PasswordData is the at-rest shape of a hashed credential, matching the
// original reference's {salt, hash} hex-encoded pair exactly so that
// imported save files remain valid across implementations.
type PasswordData struct {
	Salt string `json:"salt"`
	Hash string `json:"hash"`
}

func hashPassword(password string) (*PasswordData, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	derived := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return &PasswordData{Salt: hex.EncodeToString(salt), Hash: hex.EncodeToString(derived)}, nil
}

func verifyPassword(attempt string, data *PasswordData) bool {
	salt, err := hex.DecodeString(data.Salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(data.Hash)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(attempt), salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
