package content

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// validate checks the `validate` tags of the record structs. Field names in
// its errors are the json names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("catalystdate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

// check validates rec and reports every failed field under ErrValidation.
func check(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "notblank", "min":
			missing = append(missing, fe.Field())
		case "oneof":
			invalid = append(invalid, fmt.Sprintf("unknown %s %q", fe.Field(), fe.Value()))
		case "catalystdate":
			invalid = append(invalid, fmt.Sprintf("invalid %s %q", fe.Field(), fe.Value()))
		default:
			invalid = append(invalid, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	var parts []string
	if len(missing) > 0 {
		sort.Strings(missing)
		parts = append(parts, strings.Join(missing, ", ")+" required")
	}
	parts = append(parts, invalid...)
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, "; "))
}
