package sqliter

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a confirmatory read finds no row.
var ErrNotFound = errors.New("record not found")

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("validation error")

// ErrUnknownProperty is wrapped by every *UnknownPropertyError.
var ErrUnknownProperty = errors.New("unknown property")

// ErrUnrestrictedDelete is wrapped by the ValidationError returned when Delete has no filter.
var ErrUnrestrictedDelete = errors.New("refusing unrestricted delete")

// ErrEmptyTable is returned when a Model has an empty name.
var ErrEmptyTable = errors.New("empty table name")

// ErrInvalidIdentifier is returned when a table or column name is not a plain SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrSchemaDefined is returned by a second call to Define.
var ErrSchemaDefined = errors.New("schema already defined")

// ErrSchemaUndefined is returned when a Model is used before Define.
var ErrSchemaUndefined = errors.New("schema not defined")

// ErrNotInitialized is returned when a Model is used before Init.
var ErrNotInitialized = errors.New("model not initialized")

// ErrUnknownType is returned by LookupType for names outside the catalog.
var ErrUnknownType = errors.New("unknown type")

// ValidationError names the properties that were rejected before any write.
type ValidationError struct {
	Model      string
	Properties []string
	Reason     string
	cause      error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	b.WriteString(": ")
	b.WriteString(e.Model)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Properties) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Properties, ", "))
	}
	return b.String()
}

// Unwrap exposes ErrValidation and, when set, the more specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrValidation, e.cause}
	}
	return []error{ErrValidation}
}

// UnknownPropertyError reports a name that is not declared on the Model.
type UnknownPropertyError struct {
	Model    string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return "invalid property for model (" + e.Model + "): " + e.Property
}

func (e *UnknownPropertyError) Unwrap() error { return ErrUnknownProperty }
