package sanitizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	dotRegex        = regexp.MustCompile(`\.{2,}`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	handleFolder    = cases.Fold()
)

// NormalizeEmail trims and lowercases an address and collapses repeated
// dots in the local part.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return email
	}

	local = dotRegex.ReplaceAllString(local, ".")
	local = strings.Trim(local, ".")

	return local + "@" + domain
}

// NormalizeHandle applies Unicode compatibility normalization (NFKC) and
// case folding, so visually equivalent handles compare equal.
// "Ａｎｎ" and "ANN" both become "ann".
func NormalizeHandle(handle string) string {
	handle = norm.NFKC.String(strings.TrimSpace(handle))
	handle = strings.TrimPrefix(handle, "@")
	return handleFolder.String(handle)
}

// NormalizeName trims a display name and collapses internal whitespace.
func NormalizeName(name string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(name), " ")
}
