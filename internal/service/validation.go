package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

// Messages for the custom tags; the field name is prepended.
var customTagMessages = map[string]string{
	"period":      "must be one of I, II, III, IV, V, VI",
	"write_mode":  "must be append or replace",
	"day":         "must be a school day from Lunedì to Venerdì",
	"lesson_type": "must be a known lesson type",
	"criticality": "must be one of the listed criticality levels",
}

// translators maps each *validator.Validate to its English translator.
var translators sync.Map

func translatorFor(v *validator.Validate) ut.Translator {
	if existing, ok := translators.Load(v); ok {
		return existing.(ut.Translator)
	}
	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if actual, loaded := translators.LoadOrStore(v, trans); loaded {
		return actual.(ut.Translator)
	}

	_ = enTranslations.RegisterDefaultTranslations(v, trans)
	v.RegisterTagNameFunc(fieldName)
	for tag, message := range customTagMessages {
		message := message
		_ = v.RegisterTranslation(tag, trans, func(ut.Translator) error { return nil }, func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " " + message
		})
	}
	return trans
}

func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// invalidInput wraps a validation failure; field errors become details keyed
// by their JSON path.
func invalidInput(v *validator.Validate, err error, message string) *appErrors.Error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if v == nil || !errors.As(err, &fieldErrs) {
		return appErr
	}
	trans := translatorFor(v)
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if idx := strings.Index(key, "."); idx >= 0 {
			key = key[idx+1:]
		}
		details[key] = fe.Translate(trans)
	}
	return appErrors.WithDetails(appErr, details)
}

func registerSubstitutionValidations(v *validator.Validate) {
	translatorFor(v)
	v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		_, err := models.ParsePeriod(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("write_mode", func(fl validator.FieldLevel) bool {
		switch models.HistoryWriteMode(fl.Field().String()) {
		case models.HistoryWriteAppend, models.HistoryWriteReplace:
			return true
		}
		return false
	})
}

func registerScheduleValidations(v *validator.Validate) {
	registerSubstitutionValidations(v)
	v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		day, err := models.ParseDay(fl.Field().String())
		return err == nil && day.IsSchoolDay()
	})
	v.RegisterValidation("lesson_type", func(fl validator.FieldLevel) bool {
		_, err := models.ParseLessonType(fl.Field().String())
		return err == nil
	})
}

func registerBehaviorValidations(v *validator.Validate) {
	translatorFor(v)
	v.RegisterValidation("criticality", func(fl validator.FieldLevel) bool {
		value := models.Criticality(fl.Field().String())
		for _, c := range models.Criticalities {
			if c == value {
				return true
			}
		}
		return false
	})
}
