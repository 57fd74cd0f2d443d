// Package validator provides rule-based input validation.
//
// Rules are plain values pairing a check with the error reported when it
// fails. Apply runs them all and collects the failures:
//
//	err := validator.Apply(
//	    validator.RequiredString("handle", in.Handle),
//	    validator.MaxLenString("handle", in.Handle, 20),
//	    validator.ValidEmail("email", in.Email),
//	)
//	if ve := validator.ExtractValidationErrors(err); ve != nil {
//	    // ve.Fields() == []string{"email"}
//	}
package validator
