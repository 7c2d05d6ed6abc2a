package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePasswordStrength("Str0ngEnough"))
	assert.Error(t, ValidatePasswordStrength("short"))
	assert.Error(t, ValidatePasswordStrength("alllowercase1"))
	assert.Error(t, ValidatePasswordStrength("NODIGITSHERE"))
}
