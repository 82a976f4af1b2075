package auth

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation messages, kept identical to what the UI displays.
const (
	MsgEmailInvalid            = "Email is not valid"
	MsgPasswordTooShort        = "Password must be at least 6 characters long"
	MsgNameTooShort            = "Name must be at least 2 characters long"
	MsgConfirmPasswordTooShort = "Confirm Password must be at least 6 characters long"
	MsgPasswordsDoNotMatch     = "Passwords do not match"
	MsgRequired                = "Required"
)

// Issue is one field-scoped validation problem.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a validation: success when it carries no issues.
type Result struct {
	Issues []Issue
}

// OK reports whether validation passed.
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// Err returns a *ValidationError, or nil when validation passed.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Issues: r.Issues}
}

func (r *Result) add(field, msg string) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: msg})
}

// ValidationError reports every issue found in a payload.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returns the messages reported for field.
func (e *ValidationError) Messages(field string) []string {
	var out []string
	for _, is := range e.Issues {
		if is.Field == field {
			out = append(out, is.Message)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(passwordsMatch, RegisterRequest{})
	return v
}

// passwordsMatch runs after the field rules, so a mismatch is reported even
// when confirmPassword is also too short.
func passwordsMatch(sl validator.StructLevel) {
	req := sl.Current().Interface().(RegisterRequest)
	if req.Password != req.ConfirmPassword {
		sl.ReportError(req.ConfirmPassword, "confirmPassword", "ConfirmPassword", "eqfield", "Password")
	}
}

// messages maps "<field>.<tag>" to the text shown for that failure.
var messages = map[string]string{
	"name.min":                MsgNameTooShort,
	"password.min":            MsgPasswordTooShort,
	"confirmPassword.min":     MsgConfirmPasswordTooShort,
	"confirmPassword.eqfield": MsgPasswordsDoNotMatch,
}

func message(field, tag string) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	switch tag {
	case "email":
		return MsgEmailInvalid
	case "required":
		return MsgRequired
	}
	return "failed on " + tag
}

// ValidEmail reports whether s is a plain address such as "user@example.com".
func ValidEmail(s string) bool {
	return validate.Var(s, "email") == nil
}

// validateStruct runs the validate tags of v and collects every failure.
func validateStruct(v any) Result {
	var r Result
	collect(&r, validate.Struct(v), "")
	return r
}

// rule checks a single value that carries no struct tags.
type rule struct {
	field string
	value string
	tag   string
}

func validateRules(rules ...rule) Result {
	var r Result
	for _, ru := range rules {
		collect(&r, validate.Var(ru.value, ru.tag), ru.field)
	}
	return r
}

func collect(r *Result, err error, field string) {
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		r.add(field, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		r.add(name, message(name, fe.Tag()))
	}
}
