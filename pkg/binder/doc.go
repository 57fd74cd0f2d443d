// Package binder decodes HTTP request bodies into Go structs.
//
// JSON binding is strict: the media type must be application/json, unknown
// fields are rejected, trailing data is rejected and the body is capped.
//
//	bind := binder.JSON()
//
//	var req struct {
//		Email string `json:"email"`
//	}
//	if err := bind(r, &req); err != nil {
//		// errors.Is(err, binder.ErrFailedToParseJSON) etc.
//	}
package binder
