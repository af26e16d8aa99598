package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type Kind string

const (
	KindRequired  Kind = "required"
	KindDuplicate Kind = "duplicate"
	KindFormat    Kind = "format"
	KindLength    Kind = "length"
	KindChoice    Kind = "choice"
	KindMismatch  Kind = "mismatch"
)

// FieldError is one failed check on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Message }

// Errors accumulates every failed check of a single input.
type Errors []FieldError

func (e Errors) Error() string {
	return strings.Join(e.Messages(), "; ")
}

func (e Errors) Messages() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Message
	}
	return out
}

// Field returns the messages recorded against one field, for inline form display.
func (e Errors) Field(name string) []string {
	var out []string
	for _, fe := range e {
		if fe.Field == name {
			out = append(out, fe.Message)
		}
	}
	return out
}

func (e Errors) Has(name string) bool { return len(e.Field(name)) > 0 }

// Err returns nil when nothing failed, so callers can use the usual err != nil check.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e *Errors) add(field string, kind Kind, msg string) {
	*e = append(*e, FieldError{Field: field, Kind: kind, Message: msg})
}

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func tooLong(s string, max int) bool {
	return len([]rune(s)) > max
}
