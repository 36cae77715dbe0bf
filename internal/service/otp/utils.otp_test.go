package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := randomCode(6)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q", code)
		}
		seen[code] = true
	}
	// 200 draws from a million values colliding down to a handful would
	// mean the generator is broken.
	assert.Greater(t, len(seen), 150)
}

func TestFormatPurpose(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Register", formatPurpose("register"))
	assert.Equal(t, "Reset Pin", formatPurpose("reset_pin"))
	assert.Equal(t, "Verify Email", formatPurpose("verify_email"))
}
