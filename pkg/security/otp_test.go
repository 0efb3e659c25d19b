package security

import (
	"testing"

	"github.com/padimart/padimart-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOtpConfig = config.OtpConfig{
	ArgonMemory:  8,
	ArgonTime:    1,
	ArgonThreads: 1,
}

func TestGenerateOtpCodeLength(t *testing.T) {
	for _, digits := range []int{4, 6, 8} {
		code, err := GenerateOtpCode(digits)
		require.NoError(t, err)
		assert.Len(t, code, digits)
	}
}

func TestGenerateOtpCodeRejectsBadDigits(t *testing.T) {
	_, err := GenerateOtpCode(3)
	assert.Error(t, err)
	_, err = GenerateOtpCode(9)
	assert.Error(t, err)
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	encoded, err := HashOtpCode("482913", testOtpConfig)
	require.NoError(t, err)

	ok, err := VerifyOtpCode("482913", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyOtpCode("482914", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := VerifyOtpCode("482913", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
