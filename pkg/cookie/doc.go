// Package cookie sets, reads and clears HTTP cookies with shared defaults
// (path, domain, Secure, HttpOnly, SameSite) taken from configuration.
package cookie
