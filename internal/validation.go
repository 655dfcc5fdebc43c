package internal

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/context"
)

const (
	msgFieldRequired      = "Field is required"
	msgInvalidFormat      = "Invalid format"
	msgFieldExceedsMaxLen = "Field exceeds maximum length"
	msgFieldBelowMinVal   = "Field is below minimum value"
	msgUnknownValidation  = "Invalid value"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report the JSON names, those are the ones the client knows
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("clock", validateClock)
	return v
}

// validateDate accepts days in the format YYYY-MM-DD
func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// validateClock accepts times of day in the format HH:MM
func validateClock(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

// validateStruct checks the validation tags of a request struct. The first failing field is reported as HTTPError
func validateStruct(ctx context.Context, s interface{}) error {
	err := validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue, msgUnknownValidation, err)
	}
	fe := vErrors[0]
	code := ErrCodeIllegalValue
	var msg string
	switch fe.Tag() {
	case "required":
		code = ErrCodeRequiredFieldMissing
		msg = msgFieldRequired
	case "max":
		msg = msgFieldExceedsMaxLen
	case "gt", "gte":
		msg = msgFieldBelowMinVal
	case "email", "url", "date", "clock", "oneof":
		msg = msgInvalidFormat
	default:
		msg = msgUnknownValidation
	}
	return MakeErrorWithData(
		http.StatusBadRequest,
		code,
		msg+": "+fe.Field(),
		map[string]string{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		},
	)
}
