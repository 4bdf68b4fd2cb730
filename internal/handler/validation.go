package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"sitemaster/internal/model"
)

// RegisterValidators adds the enum rules used in request binding tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}

	rules := map[string]validator.Func{
		"projectstatus": func(fl validator.FieldLevel) bool {
			return model.ProjectStatus(fl.Field().String()).Valid()
		},
		"taskstatus": func(fl validator.FieldLevel) bool {
			return model.TaskStatus(fl.Field().String()).Valid()
		},
		"taskpriority": func(fl validator.FieldLevel) bool {
			return model.TaskPriority(fl.Field().String()).Valid()
		},
		"doctype": func(fl validator.FieldLevel) bool {
			return model.DocumentType(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}
