// Package session defines persistence for refresh-token sessions.
//
// Every refresh token the service issues has a Record keyed by the token's
// jti. A record is revoked exactly once, when its token is rotated or signed
// out; a revoked record never validates again. Seeing a revoked record
// presented a second time is how token reuse is detected.
//
// MemoryStore is the in-process implementation used by tests and single-node
// development setups. The PostgreSQL implementation lives with the rest of
// the relational storage.
//
// # Error Handling
//
//   - ErrNotFound       – no record with that jti and token
//   - ErrConflict       – a record with that jti already exists
//   - ErrAlreadyRevoked – conditional revoke found the record already revoked
package session
