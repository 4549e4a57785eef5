// Package validate checks request payloads before they reach a repository.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
)

type CreatePostInput struct {
	Title   string `json:"title" validate:"min=5"`
	Content string `json:"content" validate:"min=100"`
	Tags    string `json:"tags"`
}

type LoginInput struct {
	Email string `json:"email" validate:"required,email"`
}

type SignupInput struct {
	Name  string `json:"name" validate:"notblank,min=2"`
	Email string `json:"email" validate:"required,email"`
}

type ProfileInput struct {
	Name      string `json:"name" validate:"notblank,min=2"`
	Bio       string `json:"bio" validate:"max=160"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

type CommentInput struct {
	Text string `json:"text" validate:"notblank"`
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			return name
		})
		_ = instance.RegisterValidation("notblank", notBlank)
	})
	return instance
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct validates v and reports the first rule broken as a Validation error.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(apperrors.CodeValidation, "invalid input", err)
	}
	return apperrors.Validation(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email address"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "required", "notblank":
		return fe.Field() + " is required"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
