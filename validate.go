package burl

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var optionsValidator *validator.Validate
var optionsTranslator ut.Translator

func init() {
	optionsValidator = validator.New()
	var ok bool
	optionsTranslator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("burl: failed to get 'en' translator")
	}
	if err := en_translations.RegisterDefaultTranslations(optionsValidator, optionsTranslator); err != nil {
		panic(err)
	}
}

// validateOptions checks opts against its struct tags before the
// redirect engine ever touches the network. A nil opts is always
// valid.
func validateOptions(opts *RequestOptions) error {
	if opts == nil {
		return nil
	}
	if opts.Auth != nil {
		if v := reflect.ValueOf(opts.Auth); v.Kind() == reflect.Ptr && v.IsNil() {
			return newError(KindInvalidOptions, "", joinedFieldError("Auth: must not be a nil pointer"))
		}
	}
	err := optionsValidator.Struct(opts)
	if err == nil {
		return nil
	}
	verrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return newError(KindInvalidOptions, "", err)
	}
	parts := make([]string, len(verrors))
	for i, v := range verrors {
		parts[i] = v.Field() + ": " + v.Translate(optionsTranslator)
	}
	return newError(KindInvalidOptions, "", errorsJoin(parts))
}

type joinedFieldError string

func (e joinedFieldError) Error() string { return string(e) }

func errorsJoin(parts []string) error {
	return joinedFieldError(strings.Join(parts, "; "))
}
