package validate

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their JSON names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return v
}

// DecodeJSON reads the body into dst and runs its `validate` tags. Both
// failures come back as validation errors.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return domain.ErrValidationMeta("invalid json body", map[string]string{"body": "request body is required"})
	}
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return domain.ErrValidationMeta("invalid json body", map[string]string{"body": "malformed JSON or invalid fields"})
	}
	return Struct(dst)
}

// Struct validates s and converts failures to a field -> reason map.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return domain.ErrValidation(err.Error())
	}

	meta := make(map[string]string, len(ves))
	for _, fe := range ves {
		meta[fieldPath(fe)] = reason(fe)
	}
	msg := "invalid request"
	if len(ves) == 1 {
		msg = meta[fieldPath(ves[0])]
	}
	return domain.ErrValidationMeta(msg, meta)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "uuid":
		return field + " must be a uuid"
	default:
		return field + " is invalid"
	}
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
