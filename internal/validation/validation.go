// Package validation checks form input before anything is sent to the API.
package validation

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// looseEmailRegex accepts anything shaped like a@b.c; the API does the real
// check.
var looseEmailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var (
	defaultValidator = validator.New()
	defaultEn        = en.New()
	uni              = ut.New(defaultEn, defaultEn)
	trans, _         = uni.GetTranslator(defaultEn.Locale())
)

// Errors maps a form field (camelCase, as the form names it) to a message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e[k])
	}
	return strings.Join(parts, "; ")
}

// UserMessage is the first message in field order.
func (e Errors) UserMessage() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return e[keys[0]]
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string { return e[field] }

// Add records msg for field unless the field already has one.
func (e Errors) Add(field, msg string) Errors {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
	return e
}

// OrNil returns e as an error, or nil when empty.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Struct validates s and returns Errors, or nil.
func Struct(s interface{}) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate: %w", err)
	}
	out := Errors{}
	for _, fe := range verrs {
		out.Add(fieldKey(fe.StructField()), fe.Translate(trans))
	}
	return out
}

// Var validates a single value against tag and returns the translated
// message, or "".
func Var(v interface{}, label, tag string) string {
	err := defaultValidator.Var(v, tag)
	if err == nil {
		return ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return strings.Replace(verrs[0].Translate(trans), verrs[0].Field(), label, 1)
	}
	return err.Error()
}

func fieldKey(structField string) string {
	if structField == "" {
		return ""
	}
	r := []rune(structField)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// humanize turns "NewPassword" into "New password".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func registerTranslation(tag, msg string) error {
	return defaultValidator.RegisterTranslation(
		tag,
		trans,
		func(ut ut.Translator) error {
			if err := ut.Add(tag, msg, true); err != nil {
				return fmt.Errorf("register translation: %w", err)
			}
			return nil
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field(), fe.Param())
			return t
		},
	)
}

func init() {
	if err := entranslations.RegisterDefaultTranslations(defaultValidator, trans); err != nil {
		fmt.Fprintf(os.Stderr, "validation register default translations: %v\n", err)
		os.Exit(1)
	}

	defaultValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return humanize(f.Name)
	})

	if err := defaultValidator.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmailRegex.MatchString(fl.Field().String())
	}); err != nil {
		fmt.Fprintf(os.Stderr, "validation loose_email: %v\n", err)
		os.Exit(1)
	}

	for tag, msg := range map[string]string{
		"required":    "{0} is required",
		"loose_email": "Please enter a valid email address",
		"min":         "{0} must be at least {1} characters",
		"max":         "{0} must be at most {1} characters",
		"eqfield":     "Passwords do not match",
		"oneof":       "{0} must be one of: {1}",
	} {
		if err := registerTranslation(tag, msg); err != nil {
			fmt.Fprintf(os.Stderr, "validation %s: %v\n", tag, err)
			os.Exit(1)
		}
	}
}
