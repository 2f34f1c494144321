package services

import (
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate lists every missing field.
func (r SignupRequest) Validate() error {
	return required(
		field{"name", r.Name},
		field{"email", r.Email},
		field{"password", r.Password},
	)
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return required(
		field{"email", r.Email},
		field{"password", r.Password},
	)
}

// Profile is what WhoAmI reveals about the caller.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type field struct {
	name  string
	value string
}

// required treats blank names and emails as missing. Passwords are taken
// verbatim, so only an empty one is missing.
func required(fields ...field) error {
	var missing []string
	for _, f := range fields {
		v := f.value
		if f.name != "password" {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &common.ValidationError{Fields: missing}
	}
	return nil
}
