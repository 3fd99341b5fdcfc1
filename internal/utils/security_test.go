package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		expected string
	}{
		{
			name:     "empty secret",
			secret:   "",
			expected: "[EMPTY]",
		},
		{
			name:     "short secret (4 chars)",
			secret:   "abcd",
			expected: "****",
		},
		{
			name:     "short secret (8 chars)",
			secret:   "abcdefgh",
			expected: "********",
		},
		{
			name:     "medium secret (12 chars)",
			secret:   "abcdefghijkl",
			expected: "abcd****ijkl",
		},
		{
			name:     "long secret (20 chars)",
			secret:   "abcdefghijklmnopqrst",
			expected: "abcd************qrst",
		},
		{
			name:     "smtp password with special characters",
			secret:   "pw-1234567890abcdef",
			expected: "pw-1***********cdef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaskSecret(tt.secret)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMaskSecret_Properties(t *testing.T) {
	// Masking preserves length
	secret := "session-secret-1234567890abcdef"
	masked := MaskSecret(secret)
	assert.Equal(t, len(secret), len(masked), "Masked secret should have same length as original")

	// First 4 and last 4 characters are preserved
	assert.Equal(t, secret[:4], masked[:4])
	assert.Equal(t, secret[len(secret)-4:], masked[len(masked)-4:])

	// Middle characters are masked
	for _, char := range masked[4 : len(masked)-4] {
		assert.Equal(t, '*', char, "Middle characters should be masked with asterisks")
	}
}

func TestMaskSecret_EdgeCases(t *testing.T) {
	// Exactly 8 characters (boundary case)
	assert.Equal(t, "********", MaskSecret("12345678"))

	// 9 characters shows first 4 and last 4
	assert.Equal(t, "1234*6789", MaskSecret("123456789"))
}
