package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// custom validation tags & texts
var (
	materialTypeTag  = "materialtype"
	materialTypeText = "tipo de material inválido"

	difficultyTag  = "difficulty"
	difficultyText = "dificuldade inválida"
)

// NewValidator instantiates the app validator and its translator.
// Validation error messages use JSON field names so they map straight onto
// form fields.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	// Register the english error messages for validation errors.
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

	// register custom validators
	_ = validate.RegisterValidation(materialTypeTag, materialTypeValidation)
	registerCustomTranslation(validate, translator, materialTypeTag, materialTypeText)
	_ = validate.RegisterValidation(difficultyTag, difficultyValidation)
	registerCustomTranslation(validate, translator, difficultyTag, difficultyText)

	return validate, translator
}

// registerCustomTranslation registers a custom translation for the specified validation tag.
func registerCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// MaterialTypes and Difficulties mirror the backend enums; registered here so
// any form type can use the `materialtype`/`difficulty` tags.
var (
	MaterialTypes = []string{
		"LESSON_PLAN", "EXERCISE", "PRESENTATION", "VIDEO", "DOCUMENT",
		"WORKSHEET", "QUIZ", "PROJECT", "GAME", "OTHER",
	}
	Difficulties = []string{"EASY", "MEDIUM", "HARD"}
)

func materialTypeValidation(fl validator.FieldLevel) bool {
	return containsString(MaterialTypes, fl.Field().String())
}

func difficultyValidation(fl validator.FieldLevel) bool {
	return containsString(Difficulties, fl.Field().String())
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
