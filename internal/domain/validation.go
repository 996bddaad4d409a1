package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var entryValidator = NewValidator()

// NewValidator creates a validator configured to report violations under
// the frontmatter key names rather than Go struct field names.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ValidateEntry checks an entry against the catalog schema and returns one
// contributor-facing reason per violated field, keyed by frontmatter key.
// Reasons cover presence, non-emptiness, and enum membership; shape checks
// happen earlier, during frontmatter decoding.
func ValidateEntry(e *Entry) map[string]string {
	err := entryValidator.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError only happens for non-struct input.
		return map[string]string{"name": "invalid entry: " + err.Error()}
	}

	reasons := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		switch fe.Tag() {
		case "required":
			reasons[key] = "missing field: " + key
		case "oneof":
			reasons[key] = fmt.Sprintf("unknown %s: '%v'", key, fe.Value())
		default:
			reasons[key] = "invalid value for field: " + key
		}
	}
	return reasons
}
