// Package sanitizer normalizes user-supplied identifiers before they are
// validated, stored or compared.
package sanitizer
