package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("secret", time.Hour, 42, true)
	require.NoError(t, err)

	claims, err := ParseSessionToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.TelegramID)
	assert.True(t, claims.Admin)
	assert.Equal(t, "42", claims.Subject)

	_, err = ParseSessionToken("other", token)
	assert.Error(t, err)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := GenerateSessionToken("secret", -time.Minute, 1, false)
	require.NoError(t, err)

	_, err = ParseSessionToken("secret", token)
	assert.Error(t, err)
}

func TestSessionTokenNeedsSecret(t *testing.T) {
	_, err := GenerateSessionToken("", time.Hour, 1, false)
	assert.Error(t, err)
}

func TestValidateStructMessages(t *testing.T) {
	type input struct {
		Name     string `validate:"required"`
		Priority string `validate:"omitempty,oneof=low medium high"`
	}

	assert.NoError(t, ValidateStruct(input{Name: "x"}))

	err := ValidateStruct(input{Priority: "urgent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "priority must be one of low medium high")
}

func TestParseInt64(t *testing.T) {
	v, ok := ParseInt64("6520664733")
	assert.True(t, ok)
	assert.Equal(t, int64(6520664733), v)

	_, ok = ParseInt64("")
	assert.False(t, ok)
	_, ok = ParseInt64("12a")
	assert.False(t, ok)
}

func TestCheckVar(t *testing.T) {
	assert.True(t, CheckVar("12.5", "numeric"))
	assert.True(t, CheckVar("-3", "numeric"))
	for _, bad := range []string{"NaN", "Inf", "0x1p4", "1e3", ""} {
		assert.False(t, CheckVar(bad, "numeric"), bad)
	}
	assert.True(t, CheckVar(0.0, "gte=0"))
	assert.False(t, CheckVar(-0.5, "gte=0"))
}

func TestOneOfTag(t *testing.T) {
	tag := OneOfTag([]string{"in progress", "a,b", "x|y", "done"})
	for _, ok := range []string{"in progress", "a,b", "x|y", "done"} {
		assert.True(t, CheckVar(ok, tag), ok)
	}
	for _, bad := range []string{"in", "progress", "a", "x", "Done"} {
		assert.False(t, CheckVar(bad, tag), bad)
	}
}
