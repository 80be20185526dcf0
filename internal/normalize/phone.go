// Package normalize canonicalizes phone numbers and addresses into
// comparable forms. Everything here is a pure function; failure degrades to
// empty values, never to an error.
package normalize

import "strings"

// Phone canonicalizes a raw US phone number into "(XXX) XXX-XXXX".
// It strips non-digits, accepts ten digits with an optional leading 1, and
// rejects implausible or placeholder numbers. Returns "" when the input
// cannot be a real number; callers must treat "" as unknown.
func Phone(raw string) string {
	var digits []byte
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}

	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}

	// Area code and exchange cannot start with 0 or 1 in the national plan.
	if digits[0] == '0' || digits[0] == '1' || digits[3] == '0' || digits[3] == '1' {
		return ""
	}

	if allSame(digits) {
		return ""
	}

	var b strings.Builder
	b.Grow(14)
	b.WriteByte('(')
	b.Write(digits[0:3])
	b.WriteString(") ")
	b.Write(digits[3:6])
	b.WriteByte('-')
	b.Write(digits[6:10])
	return b.String()
}

func allSame(digits []byte) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}
