package confirm

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
)

// Values holds submitted form input keyed by field name
type Values map[string]string

// Get returns the trimmed value of a field
func (v Values) Get(name string) string {
	return strings.TrimSpace(v[name])
}

// Bool interprets a field as a yes/no answer
func (v Values) Bool(name string) bool {
	switch strings.ToLower(v.Get(name)) {
	case "y", "yes", "true":
		return true
	}
	return false
}

// Int64 parses a numeric field; empty means zero
func (v Values) Int64(name string) int64 {
	n, _ := strconv.ParseInt(v.Get(name), 10, 64)
	return n
}

// Rule validates one field. values gives access to sibling fields.
type Rule func(value string, values Values) error

// Field declares one input of a create form
type Field struct {
	Name        string
	Label       string
	Placeholder string
	Default     string
	Secret      bool
	Rules       []Rule
}

// Validate runs every field's rules in declaration order and returns the
// first failure along with the offending field name.
func Validate(fields []Field, values Values) (string, error) {
	for _, f := range fields {
		for _, rule := range f.Rules {
			if err := rule(values[f.Name], values); err != nil {
				return f.Name, err
			}
		}
	}
	return "", nil
}

// Required rejects blank input
func Required(label string) Rule {
	return func(value string, _ Values) error {
		if strings.TrimSpace(value) == "" {
			return apperrors.ValidationError("FIELD_REQUIRED", fmt.Sprintf("%s must not be empty", label))
		}
		return nil
	}
}

// EntityName applies the server naming rules for kind under database
func EntityName(kind model.EntityKind, database string) Rule {
	return func(value string, _ Values) error {
		return model.ValidateName(kind, database, strings.TrimSpace(value))
	}
}

// Integer accepts blank or a whole number within [min, max]
func Integer(label string, min, max int64) Rule {
	return func(value string, _ Values) error {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < min || n > max {
			return apperrors.ValidationError("FIELD_NOT_NUMBER",
				fmt.Sprintf("%s must be a whole number between %d and %d", label, min, max))
		}
		return nil
	}
}

// RequiredWhen applies rule only when the field named flag is a yes answer
func RequiredWhen(flag string, rule Rule) Rule {
	return func(value string, values Values) error {
		if !values.Bool(flag) {
			return nil
		}
		return rule(value, values)
	}
}

// YesNo accepts blank or a yes/no answer
func YesNo(label string) Rule {
	return func(value string, _ Values) error {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "", "y", "yes", "n", "no", "true", "false":
			return nil
		}
		return apperrors.ValidationError("FIELD_NOT_BOOL", fmt.Sprintf("%s must be y or n", label))
	}
}
