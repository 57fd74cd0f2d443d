// Package password hashes and verifies user passwords with bcrypt.
//
// bcrypt is deliberately slow, so every call is dispatched to an async.Pool
// that caps how many hashes are computed at once. Callers block until their
// turn comes or their context ends.
package password
