package utils

import "strings"

// NormalizeISBN strips separators from isbn and reports whether the result is
// an ISBN-10 or ISBN-13 by length. A trailing X check digit is kept for ISBN-10.
func NormalizeISBN(isbn string) (string, bool) {
	cleaned := sanitizeISBN(isbn)
	return cleaned, isValidISBN(cleaned)
}

// sanitizeISBN removes everything but digits, plus a final X.
func sanitizeISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	var cleaned strings.Builder
	for i, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			cleaned.WriteRune(r)
		case (r == 'X' || r == 'x') && i == len(isbn)-1:
			cleaned.WriteRune('X')
		}
	}
	return cleaned.String()
}

func isValidISBN(cleaned string) bool {
	switch len(cleaned) {
	case 13:
		return !strings.Contains(cleaned, "X")
	case 10:
		return true
	}
	return false
}
