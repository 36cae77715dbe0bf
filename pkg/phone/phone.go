package phone

import "strings"

// Kenyan numbering: 9 significant digits after the +254 country code.
const (
	countryPrefix = "254"
	tailLen       = 9
)

// Normalize converts free-form phone input ("0712345678", "254712345678",
// "+254 712 345 678", "712345678") to canonical E.164 form "+254712345678".
// Returns "" when the remaining digit tail is not exactly 9 digits.
func Normalize(raw string) string {
	digits := onlyDigits(raw)
	if digits == "" {
		return ""
	}

	local := digits
	if strings.HasPrefix(digits, countryPrefix) {
		local = digits[len(countryPrefix):]
	} else if strings.HasPrefix(digits, "0") {
		local = digits[1:]
	}

	if len(local) < tailLen {
		return ""
	}
	tail := local[len(local)-tailLen:]
	return "+" + countryPrefix + tail
}

// Tail returns the last 9 digits of an E.164 number, the lookup key for
// user records. Returns "" for inputs shorter than 9 digits.
func Tail(e164 string) string {
	digits := onlyDigits(e164)
	if len(digits) < tailLen {
		return ""
	}
	return digits[len(digits)-tailLen:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
