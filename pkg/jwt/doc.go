// Package jwt mints and decodes the service's HS256 tokens.
//
// Four kinds share one secret: access, refresh, email verification and
// password reset. Each carries a mandatory "typ" claim, so a token of one kind
// is never accepted where another is expected. Decoding is strict: unknown
// claims, missing claims, non-canonical base64 and any algorithm other than
// HS256 are rejected, all reported as ErrInvalidToken.
//
// The codec does not look at the clock when decoding. Callers compare
// exp against their own notion of now:
//
//	claims, err := codec.DecodeRefresh(raw)
//	if err != nil {
//	    return ErrInvalidToken
//	}
//	if claims.Expired(time.Now()) {
//	    return ErrTokenExpired
//	}
package jwt
