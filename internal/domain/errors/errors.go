package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalid       = errors.New("invalid")
	ErrNoFrontMatter = errors.New("no front matter found")
	ErrBadTitle      = errors.New("bad title metadata")
	ErrDuplicateSlug = errors.New("duplicate slug")
	ErrMissingToken  = errors.New("template placeholder has no value")
	ErrBrokenLinks   = errors.New("broken internal links")
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every problem found in one pass so the user can
// fix a config file in a single edit.
type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	b.WriteString("validation failed:")
	for _, item := range e.Items {
		b.WriteString("\n - ")
		b.WriteString(item.Error())
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{
		Field:   field,
		Message: msg,
	})
}

func (e *ValidationError) Addf(field, format string, args ...any) {
	e.Add(field, fmt.Sprintf(format, args...))
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// Err returns nil when nothing was collected.
func (e ValidationError) Err() error {
	if !e.HasAny() {
		return nil
	}
	return e
}
