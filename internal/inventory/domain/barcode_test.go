package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidBarcode(t *testing.T) {
	valid := []string{"12345678", "1234567890123", "012345678905", "7501031311309"}
	for _, code := range valid {
		assert.True(t, IsValidBarcode(code), code)
	}

	invalid := []string{"", "123", "abcdefgh", "1234567", "12345678901234", "1234 5678", "12345678a", "١٢٣٤٥٦٧٨"}
	for _, code := range invalid {
		assert.False(t, IsValidBarcode(code), code)
	}
}
