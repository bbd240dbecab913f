package trackings

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var ErrUnknownTrackingNumber = errors.New("unknown tracking number")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when an input is structurally incomplete.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// В ошибках отдаём json-имена полей, как их видит клиент.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: messageFor(fe.Tag())})
	}
	return out
}

// notEmpty validates the required attributes of a patch: a present value must be neither
// null nor empty.
func notEmpty(fields map[string]models.PatchString) error {
	out := &ValidationError{}
	for _, name := range sortedKeys(fields) {
		v := fields[name]
		switch {
		case !v.Set:
			continue
		case v.Null:
			out.Fields = append(out.Fields, FieldError{Field: name, Message: "must not be null"})
		case validate.Var(v.Value, "required") != nil:
			out.Fields = append(out.Fields, FieldError{Field: name, Message: "must not be empty"})
		}
	}
	if len(out.Fields) > 0 {
		return out
	}
	return nil
}

func messageFor(tag string) string {
	switch tag {
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed %q check", tag)
	}
}

func sortedKeys(m map[string]models.PatchString) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
