package domain

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// MinPasswordLength is the shortest password the auth endpoints accept.
const MinPasswordLength = 6

// ValidationError reports per-field validation failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login request schema.
func (c Credentials) Validate() error {
	var verr ValidationError
	checkEmail(&verr, c.Email)
	if c.Password == "" {
		verr.add("password", "password is required")
	}
	return verr.orNil()
}

// Registration is the register request body.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Validate checks the register request schema.
func (r Registration) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(r.FirstName) == "" {
		verr.add("firstName", "first name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		verr.add("lastName", "last name is required")
	}
	checkEmail(&verr, r.Email)
	if len(r.Password) < MinPasswordLength {
		verr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return verr.orNil()
}

func checkEmail(verr *ValidationError, email string) {
	if strings.TrimSpace(email) == "" {
		verr.add("email", "email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		verr.add("email", "email is invalid")
	}
}
