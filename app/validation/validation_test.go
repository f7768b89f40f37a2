package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-journal/app/validation"
)

type sample struct {
	Email    string  `json:"email" validate:"required,email"`
	Note     string  `json:"note" validate:"required,max=4"`
	Optional *string `json:"optional,omitempty" validate:"omitempty,min=1,max=3"`
}

func TestValidate_Valid(t *testing.T) {
	if err := validation.Struct(&sample{Email: "a@x.com", Note: "ok"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	empty := ""
	err := validation.Struct(&sample{Email: "not-an-email", Note: "too long", Optional: &empty})

	var ve *validation.Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *validation.Error, got %T", err)
	}
	if got := ve.Fields["email"]; got != "email must be a valid email" {
		t.Fatalf("unexpected email message: %q", got)
	}
	if got := ve.Fields["note"]; got != "note must be at most 4 characters long" {
		t.Fatalf("unexpected note message: %q", got)
	}
	if got := ve.Fields["optional"]; got != "optional must be at least 1 characters long" {
		t.Fatalf("unexpected optional message: %q", got)
	}
	if !strings.HasPrefix(ve.Error(), "validation failed: ") {
		t.Fatalf("unexpected error string: %q", ve.Error())
	}
}

func TestValidate_MissingFields(t *testing.T) {
	err := validation.New().Validate(&sample{})

	var ve *validation.Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *validation.Error, got %T", err)
	}
	if ve.Fields["email"] != "email is required" || ve.Fields["note"] != "note is required" {
		t.Fatalf("unexpected fields: %+v", ve.Fields)
	}
	if _, ok := ve.Fields["optional"]; ok {
		t.Fatalf("nil optional field should not be reported")
	}
}

func TestFieldError(t *testing.T) {
	err := validation.FieldError("password", "password is too short")
	if err.Fields["password"] != "password is too short" {
		t.Fatalf("unexpected fields: %+v", err.Fields)
	}
	if err.Error() != "validation failed: password is too short" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}
