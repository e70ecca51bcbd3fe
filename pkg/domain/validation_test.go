package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistrationValidate(t *testing.T) {
	tests := []struct {
		name   string
		reg    Registration
		fields []string
	}{
		{"valid", Registration{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "secret1"}, nil},
		{"missing names", Registration{Email: "ada@example.com", Password: "secret1"}, []string{"firstName", "lastName"}},
		{"blank first name", Registration{FirstName: "  ", LastName: "L", Email: "ada@example.com", Password: "secret1"}, []string{"firstName"}},
		{"bad email", Registration{FirstName: "A", LastName: "L", Email: "not-an-email", Password: "secret1"}, []string{"email"}},
		{"email without domain dot", Registration{FirstName: "A", LastName: "L", Email: "a@b", Password: "secret1"}, []string{"email"}},
		{"display name email", Registration{FirstName: "A", LastName: "L", Email: "Ada <ada@example.com>", Password: "secret1"}, []string{"email"}},
		{"short password", Registration{FirstName: "A", LastName: "L", Email: "a@b.com", Password: "12345"}, []string{"password"}},
		{"password at minimum", Registration{FirstName: "A", LastName: "L", Email: "a@b.com", Password: "123456"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("got %d field errors %v, want %v", len(verr.Fields), verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field error for %q in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestCredentialsValidate(t *testing.T) {
	if err := (Credentials{Email: "a@b.com", Password: "secret1"}).Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	err := (Credentials{Email: "", Password: ""}).Validate()
	if err == nil {
		t.Fatal("expected error for empty credentials")
	}
	if got := err.Error(); !strings.Contains(got, "email: email is required") || !strings.Contains(got, "password: password is required") {
		t.Errorf("error = %q, want both field messages", got)
	}
}

func TestHackathonStatusValid(t *testing.T) {
	for _, s := range HackathonStatuses {
		if !s.Valid() {
			t.Errorf("%q.Valid() = false, want true", s)
		}
	}
	if HackathonStatus("cancelled").Valid() {
		t.Error(`"cancelled".Valid() = true, want false`)
	}
	if HackathonStatus("").Valid() {
		t.Error(`"".Valid() = true, want false`)
	}
}
