package validator

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("weekday", validateWeekday)
	return &CustomValidator{
		validator: v,
	}
}

// validateDate accepts calendar dates in YYYY-MM-DD form.
func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

// validateWeekday accepts lowercase or capitalized English weekday names.
func validateWeekday(fl validator.FieldLevel) bool {
	return weekdays[strings.ToLower(fl.Field().String())]
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "min":
				errors[field] = field + " must have at least " + e.Param() + " items or characters"
			case "max":
				errors[field] = field + " must have at most " + e.Param() + " items or characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "date":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "weekday":
				errors[field] = field + " must be a weekday name"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
