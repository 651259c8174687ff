// Package validation checks client-supplied input structs against their
// `validate` tags and reports the first failure as an apperrors.ValidationError.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	noNULTag    = "nonul"
	priorityTag = "priority"
)

// Validator wraps a configured validator.Validate and its English translator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New returns a Validator with JSON field names, English messages and the
// custom notblank/nonul/priority tags registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(noNULTag, noNULValidation)
	_ = validate.RegisterValidation(priorityTag, priorityValidation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, noNULTag, priorityTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomErrs)
	}

	return &Validator{validate: validate, translator: translator}
}

// Struct validates s. It returns nil, or a *apperrors.ValidationError
// describing the first failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(fe.Field(), fe.Translate(v.translator))
	}
	return apperrors.NewValidationError("", err.Error())
}

var defaultValidator = New()

// Struct validates s with the package-level Validator.
func Struct(s any) error {
	return defaultValidator.Struct(s)
}

func translateCustomErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case noNULTag:
		return fe.Field() + " must not contain NUL characters"
	case priorityTag:
		return fe.Field() + " must be one of low, medium, high"
	default:
		return fe.Error()
	}
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// PostgreSQL text columns reject 0x00.
func noNULValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return !strings.ContainsRune(str, 0)
	}
	return false
}

func priorityValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		_, valid := models.ParsePriority(str)
		return valid
	}
	return false
}
