// Package symbol normalizes KRX symbol codes. The brokerage front ends use
// an "A" prefix on the six-digit issue code (A122630); the REST trading API
// wants the bare digits.
package symbol

import "strings"

// Normalize upper-cases the code and ensures the A prefix.
// Returns "" when the input is not a KRX code.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	bare := strings.TrimPrefix(code, "A")
	if !isDigits(bare) || len(bare) != 6 {
		return ""
	}
	return "A" + bare
}

// Bare strips the A prefix for wire formats that want the raw issue code.
func Bare(code string) string {
	return strings.TrimPrefix(Normalize(code), "A")
}

// Valid reports whether code normalizes to a KRX code.
func Valid(code string) bool {
	return Normalize(code) != ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
