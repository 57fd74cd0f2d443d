package auth

import (
	"regexp"

	"github.com/mofumofu/authcore/pkg/validator"
)

const (
	maxNameLength     = 100
	maxEmailLength    = 254
	minPasswordLength = 4
	maxPasswordBytes  = 72
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

func handleRule(handle string) validator.Rule {
	return validator.MatchesRegex("handle", handle, handlePattern,
		"must be 3 to 20 characters of lowercase letters, digits or underscores")
}

func passwordRules(field, password string) []validator.Rule {
	return []validator.Rule{
		validator.RequiredString(field, password),
		validator.MinLenString(field, password, minPasswordLength),
		validator.MaxBytesString(field, password, maxPasswordBytes),
	}
}

func validateSignUp(in SignUpInput) error {
	rules := []validator.Rule{
		validator.RequiredString("name", in.Name),
		validator.MaxLenString("name", in.Name, maxNameLength),
		handleRule(in.Handle),
		validator.ValidEmail("email", in.Email),
		validator.MaxLenString("email", in.Email, maxEmailLength),
	}
	return validator.Apply(append(rules, passwordRules("password", in.Password)...)...)
}

func validateSignIn(in SignInInput) error {
	return validator.Apply(
		validator.RequiredString("login", in.Login),
		validator.RequiredString("password", in.Password),
	)
}

func validatePassword(field, password string) error {
	return validator.Apply(passwordRules(field, password)...)
}
