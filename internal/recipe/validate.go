package recipe

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"recipebox/internal/services"
)

// ManualEntry is a recipe typed in by the user.
type ManualEntry struct {
	Title    string `json:"title" validate:"max=200"`
	Text     string `json:"text" validate:"required"`
	Servings int    `json:"servings" validate:"omitempty,min=1,max=100"`
}

// Edit changes the title and text of an existing recipe.
type Edit struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"max=200"`
	Text  string `json:"text" validate:"required"`
}

// FolderInput describes a folder to create.
type FolderInput struct {
	Name  string `json:"name" validate:"required,max=60"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// AnalyzeInput is a request to analyze a recipe photo.
type AnalyzeInput struct {
	Image    string `json:"image" validate:"required,startswith=data:image/|http_url"`
	Servings int    `json:"servings" validate:"omitempty,min=1,max=100"`
}

// RescaleInput is a request to rescale the active recipe.
type RescaleInput struct {
	Servings int `json:"servings" validate:"min=1,max=100"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a struct's validate tags. Failures carry services.ErrValidation
// and name the offending fields.
func Validate(operation string, value any) error {
	err := validatorInstance().Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return services.Wrap(services.ErrValidation, "recipe", operation, "invalid input", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describeFieldError(fe))
	}
	return services.Wrap(services.ErrValidation, "recipe", operation, strings.Join(parts, "; "), nil)
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "hexcolor":
		return field + " must be a hex color"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
