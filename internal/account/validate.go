package account

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	MsgInvalidUsername = "Username must be 1-50 characters (letters, numbers, hyphens, underscores)."
	MsgPasswordShort   = "Password must be at least 12 characters."
	MsgPasswordUpper   = "Password must contain an uppercase letter."
	MsgPasswordLower   = "Password must contain a lowercase letter."
	MsgPasswordDigit   = "Password must contain a number."
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		mustRegister(v, "whib_username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "has_upper", anyByte(func(b byte) bool { return b >= 'A' && b <= 'Z' }))
		mustRegister(v, "has_lower", anyByte(func(b byte) bool { return b >= 'a' && b <= 'z' }))
		mustRegister(v, "has_digit", anyByte(func(b byte) bool { return b >= '0' && b <= '9' }))
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func anyByte(match func(byte) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for i := 0; i < len(s); i++ {
			if match(s[i]) {
				return true
			}
		}
		return false
	}
}

// newAccount is checked before anything is sent to the backend. Tag order
// on Password is the order failures are reported in.
type newAccount struct {
	Username string `validate:"whib_username"`
	Password string `validate:"min=12,has_upper,has_lower,has_digit"`
}

var tagMessages = map[string]string{
	"whib_username": MsgInvalidUsername,
	"min":           MsgPasswordShort,
	"has_upper":     MsgPasswordUpper,
	"has_lower":     MsgPasswordLower,
	"has_digit":     MsgPasswordDigit,
}

// ValidationError carries the client-facing message for the first rule a
// registration broke.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateNewAccount trims the username and checks both fields. The
// trimmed username is returned for use with the backend.
func ValidateNewAccount(username, password string) (string, error) {
	in := newAccount{Username: strings.TrimSpace(username), Password: password}
	err := getValidator().Struct(&in)
	if err == nil {
		return in.Username, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "", err
	}
	first := fieldErrs[0]
	msg, ok := tagMessages[first.Tag()]
	if !ok {
		msg = first.Error()
	}
	return "", &ValidationError{Field: first.Field(), Message: msg}
}
