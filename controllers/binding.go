package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"dsadmin/apperror"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-playground/validator/v10"
)

// A single validator instance is shared, because it caches struct parsing.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// readBody decodes the JSON body into input and validates its tags. Both
// failures are reported as validation errors.
func readBody(req *restful.Request, input any) error {
	if err := req.ReadEntity(input); err != nil {
		return apperror.Validation("Invalid request body.").Wrap(err)
	}
	if err := validate.Struct(input); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Validation("Invalid request body.").Wrap(err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s field is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s long", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
		}
	}
	return apperror.Validation(strings.Join(msgs, "; ")).Wrap(err)
}

func pathID(req *restful.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(req.PathParameter(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation(fmt.Sprintf("Invalid %s format", name))
	}
	return uint(id), nil
}
