package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maxviazov/projecthub-service/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names so the client recognises them
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and converts failures to FieldErrors.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := make([]FieldError, 0, len(verrs))
	for _, ve := range verrs {
		fe = append(fe, FieldError{Field: ve.Field(), Message: messageFor(ve)})
	}
	return newInvalidInput(fe)
}

func messageFor(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + ve.Param() + " characters"
	case "max":
		return "must be at most " + ve.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(ve.Param(), " ", ", ")
	case "gt":
		return "must be > " + ve.Param()
	default:
		return "is invalid"
	}
}

// parseID reads a positive identifier from a path or query value.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isValidRole(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleManager, model.RoleMember:
		return true
	default:
		return false
	}
}

func isValidTaskStatus(status string) bool {
	switch status {
	case model.TaskTodo, model.TaskInProgress, model.TaskDone:
		return true
	default:
		return false
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
