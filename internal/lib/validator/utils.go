package validator

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"cinescope/proj/internal/utils"

	govalidator "github.com/go-playground/validator/v10"
)

func getFieldName(obj any, origFieldName string) (fieldName string) {
	t := reflect.TypeOf(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", origFieldName, t.Name()))
	}
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		jsonName := strings.Split(tag, ",")[0]
		if jsonName != "" {
			fieldName = jsonName
		}
	} else {
		fieldName = utils.CamelToSnake(origFieldName)
	}
	return
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		validationErrs = ProcessValidationErrors(obj, err.(govalidator.ValidationErrors))
	}
	return
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := reflect.TypeOf(obj)
	field, found := t.FieldByName(err.StructField())
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", err.StructField(), t.Name()))
	}
	errorMsg = field.Tag.Get("errorMsg")
	if errorMsg == "" {
		switch err.Tag() {
		case "required":
			errorMsg = "This field is required"
		case "max":
			errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
		case "min":
			errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
		case "len":
			errorMsg = fmt.Sprintf("Length should be equal to %s", err.Param())
		case "url":
			errorMsg = "Value must be a valid URL"
		case "email":
			errorMsg = "Value must be a valid email address"
		case "alphanum":
			errorMsg = "Value must be alphanumeric"
		case "password":
			errorMsg = strings.Join(PasswordViolations(err.Value().(string)), ", ")
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

// CUSTOM VALIDATORS

const passwordMinLength = 8

var passwordChecks = []struct {
	ok  func(string) bool
	msg string
}{
	{
		ok:  func(s string) bool { return len(s) >= passwordMinLength },
		msg: fmt.Sprintf("Minimum %d characters", passwordMinLength),
	},
	{
		ok:  func(s string) bool { return strings.ContainsFunc(s, unicode.IsUpper) },
		msg: "At least one uppercase letter",
	},
	{
		ok:  func(s string) bool { return strings.ContainsFunc(s, unicode.IsLower) },
		msg: "At least one lowercase letter",
	},
	{
		ok:  func(s string) bool { return strings.ContainsFunc(s, unicode.IsDigit) },
		msg: "At least one number",
	},
}

// PasswordViolations itemizes every policy rule the password breaks.
// Symbols are allowed but not required.
func PasswordViolations(password string) []string {
	var violations []string
	for _, check := range passwordChecks {
		if !check.ok(password) {
			violations = append(violations, check.msg)
		}
	}
	return violations
}

func ValidatePassword(fl govalidator.FieldLevel) bool {
	return len(PasswordViolations(fl.Field().String())) == 0
}
