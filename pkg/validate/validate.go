package validate

import (
	"regexp"
	"strings"
)

var (
	pinRegex   = regexp.MustCompile(`^\d{4}$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// PIN checks the 4-digit login PIN shape.
func PIN(pin string) bool {
	return pinRegex.MatchString(pin)
}

func Email(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}
