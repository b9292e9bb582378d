package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/services/search"
)

type Validator struct {
	validator                *validator.Validate
	logger                   logger.Logger
	tagValidationDetailsOnce sync.Once
	tagValidationDetailsMap  map[string]tagValidationDetails
}

type tagValidationDetails struct {
	validatorFunc validator.Func
	err           error
}

func New(logger logger.Logger) (*Validator, error) {
	validator := &Validator{validator: validator.New(), logger: logger}
	validator.validator.RegisterTagNameFunc(useJSONFieldNames)
	if err := validator.registerCustomValidatorsForTags(); err != nil {
		return nil, err
	}

	return validator, nil
}

func (v *Validator) Validate(i any) error {

	if err := v.validator.Struct(i); err != nil {
		v.logger.Warn("validation failed", "err", err.Error())
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {

			tagValidationDetails, ok := v.getTagValidationDetails()[validationErrs[0].Tag()]
			if ok {
				return fmt.Errorf("%w for field '%s'", tagValidationDetails.err, validationErrs[0].Field())
			}

			switch validationErrs[0].Tag() {
			case "required":
				return fmt.Errorf("missing required field '%s'", validationErrs[0].Field())

			case "min", "max":
				return fmt.Errorf("value or length of field '%s' is not in the expected range", validationErrs[0].Field())

			}
		}
		return err
	}
	return nil
}

func (v *Validator) getTagValidationDetails() map[string]tagValidationDetails {
	v.tagValidationDetailsOnce.Do(func() {
		v.tagValidationDetailsMap = map[string]tagValidationDetails{
			"valid_query":       {validatorFunc: v.isValidQuery, err: errors.New("invalid query")},
			"valid_title":       {validatorFunc: v.isValidText, err: errors.New("invalid title")},
			"valid_text":        {validatorFunc: v.isValidText, err: errors.New("invalid text")},
			"valid_date":        {validatorFunc: v.isValidDate, err: errors.New("invalid date, expected YYYY-MM-DD")},
			"valid_search_mode": {validatorFunc: v.isValidSearchMode, err: errors.New("invalid search mode")},
			"valid_text_match":  {validatorFunc: v.isValidTextMatch, err: errors.New("invalid text match")},
			"valid_format":      {validatorFunc: v.isValidFormat, err: errors.New("invalid content format")},
		}
	})
	return v.tagValidationDetailsMap
}

func (v *Validator) registerCustomValidatorsForTags() error {

	tagValidationDetailsMap := v.getTagValidationDetails()

	for tag, tagValidationDetails := range tagValidationDetailsMap {
		if err := v.validator.RegisterValidation(tag, tagValidationDetails.validatorFunc); err != nil {
			v.logger.Error("failed to register custom validator function", "err", err.Error())
			return err
		}
	}
	return nil
}

func useJSONFieldNames(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// isValidQuery accepts the empty query, which lists the corpus.
func (v *Validator) isValidQuery(fl validator.FieldLevel) bool {
	query := fl.Field().String()
	if !utf8.ValidString(query) {
		v.logger.Warn("query is not valid utf-8")
		return false
	}
	if strings.Contains(query, "\x00") {
		v.logger.Warn("query has null byte", "query", query)
		return false
	}

	return true
}

func (v *Validator) isValidText(fl validator.FieldLevel) bool {
	text := fl.Field().String()
	if strings.TrimSpace(text) == "" {
		v.logger.Warn("text is blank")
		return false
	}
	if !utf8.ValidString(text) || strings.Contains(text, "\x00") {
		v.logger.Warn("text has invalid characters")
		return false
	}

	return true
}

func (v *Validator) isValidDate(fl validator.FieldLevel) bool {
	date := fl.Field().String()
	if date == "" {
		return true
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		v.logger.Warn("date could not be parsed", "date", date)
		return false
	}

	return true
}

func (v *Validator) isValidSearchMode(fl validator.FieldLevel) bool {
	_, err := search.ParseMode(fl.Field().String())
	return err == nil
}

func (v *Validator) isValidTextMatch(fl validator.FieldLevel) bool {
	_, err := search.ParseTextMatch(fl.Field().String())
	return err == nil
}

func (v *Validator) isValidFormat(fl validator.FieldLevel) bool {
	_, err := docstore.ParseContentFormat(fl.Field().String())
	return err == nil
}
