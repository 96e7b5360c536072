package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fastHasher = PasswordHasher{N: 1 << 10, R: 8, P: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := fastHasher.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "scrypt$1024$8$1$"))
	assert.Len(t, strings.Split(hash, "$"), 6)

	assert.NoError(t, fastHasher.Verify(hash, "s3cret-pass"))
	assert.ErrorIs(t, fastHasher.Verify(hash, "wrong-pass"), ErrPasswordMismatch)

	// Parameters come from the stored hash, not the verifier.
	assert.NoError(t, DefaultHasher.Verify(hash, "s3cret-pass"))

	again, err := fastHasher.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must differ between hashes")
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, DefaultHasher.Verify(string(legacy), "old-password"))
	assert.ErrorIs(t, DefaultHasher.Verify(string(legacy), "new-password"), ErrPasswordMismatch)
}

func TestVerifyMalformed(t *testing.T) {
	assert.ErrorIs(t, DefaultHasher.Verify("", "x"), ErrPasswordMismatch)
	for _, encoded := range []string{"plaintext", "scrypt$a$8$1$c2FsdA$a2V5", "scrypt$1024$8$1$!!$a2V5", "md5$1$2$3$4$5"} {
		err := DefaultHasher.Verify(encoded, "x")
		assert.Error(t, err, encoded)
		assert.NotErrorIs(t, err, ErrPasswordMismatch, encoded)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("longenough"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword("       x   "))
}
