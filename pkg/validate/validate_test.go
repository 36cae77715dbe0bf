package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPIN(t *testing.T) {
	t.Parallel()

	valid := []string{"0000", "1234", "9999"}
	for _, pin := range valid {
		assert.True(t, PIN(pin), "PIN %q", pin)
	}

	invalid := []string{"", "123", "12345", "12a4", "12.4", " 1234", "1234 "}
	for _, pin := range invalid {
		assert.False(t, PIN(pin), "PIN %q", pin)
	}
}

func TestEmail(t *testing.T) {
	t.Parallel()

	assert.True(t, Email("driver@example.com"))
	assert.True(t, Email("a.b+tag@sub.example.co.ke"))

	invalid := []string{"", "  ", "plain", "a@b", "@example.com", "a@.com"}
	for _, e := range invalid {
		assert.False(t, Email(e), "email %q", e)
	}
}
