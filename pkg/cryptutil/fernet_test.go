package cryptutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptFileDecryptFileRoundTrip(t *testing.T) {
	plaintext := []byte("the treasure is buried under the old oak")
	encrypted, err := EncryptFile("hunter2", plaintext)
	require.NoError(t, err)

	decrypted, err := DecryptFile("hunter2", encrypted)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptFileWrongPasswordFails(t *testing.T) {
	encrypted, err := EncryptFile("correct-password", []byte("secret"))
	require.NoError(t, err)

	_, err = DecryptFile("wrong-password", encrypted)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecryptFileTooShortFails(t *testing.T) {
	_, err := DecryptFile("pw", []byte("short"))
	assert.ErrorIs(t, err, ErrTokenTooShort)
}

func TestEncryptProducesDifferentTokensForSamePlaintext(t *testing.T) {
	a, err := EncryptFile("pw", []byte("data"))
	require.NoError(t, err)
	b, err := EncryptFile("pw", []byte("data"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
