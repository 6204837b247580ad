package validation

import (
	"reflect"
	"strings"
	"sync"

	"go-workforce/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		// Ambil nama field dari tag json (contoh: `json:"start_date"`)
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Struct validates v's `validate` tags and maps the first failure to an
// AppError with a human-readable field name.
func Struct(v any) error {
	if err := instance().Struct(v); err != nil {
		return mapValidationError(err)
	}
	return nil
}

func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English)
	return caser.String(s)
}

func mapValidationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		e := errs[0]
		field := formatFieldName(e.Field())
		switch e.Tag() {
		case "required":
			return apperror.RequiredField(field)
		default:
			return apperror.InvalidField(field)
		}
	}
	return apperror.ErrInvalidInput
}
