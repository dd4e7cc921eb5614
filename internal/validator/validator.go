package validator

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var structs = validator.New(validator.WithRequiredStructEnabled())

// Validate returns an error naming the component if any dependency is nil or
// the zero value of its type. Struct values always count as present.
func Validate(name string, deps ...any) error {
	for _, dep := range deps {
		if missing(dep) {
			return fmt.Errorf("missing required deps for component: %s", name)
		}
	}

	return nil
}

func missing(dep any) bool {
	if dep == nil {
		return true
	}

	v := reflect.ValueOf(dep)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	case reflect.Struct:
		return false
	default:
		return v.IsZero()
	}
}

// Struct validates s against its `validate` struct tags.
func Struct(s any) error {
	return structs.Struct(s)
}
