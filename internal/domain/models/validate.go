package models

import (
	"strings"
	"time"

	"taskboard/internal/domain/errors"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	return v
}

// Validator returns the shared validator with the taskstatus tag registered.
func Validator() *validator.Validate { return validate }

// Normalize trims the free-text fields the way they are stored.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
}

// Validate checks the persisted field constraints of a full record.
func (t *Task) Validate() error {
	return ValidationError(validate.Struct(t))
}

// Normalize trims the free-text fields present in the patch.
func (p *TaskPatch) Normalize() {
	if p.Title != nil {
		v := strings.TrimSpace(*p.Title)
		p.Title = &v
	}
	if p.Description != nil {
		v := strings.TrimSpace(*p.Description)
		p.Description = &v
	}
}

// Validate runs the field validators for the fields being set. The due date
// is only checked when the patch carries one. An empty patch is valid.
func (p *TaskPatch) Validate(now time.Time) error {
	if p.Status != nil && !p.Status.Valid() {
		return errors.ErrInvalidStatus
	}
	// omitempty skips empty strings behind non-nil pointers, so blank
	// values are rejected here.
	if p.Title != nil && *p.Title == "" {
		return errors.ErrInvalidTitle
	}
	if p.Description != nil && *p.Description == "" {
		return errors.ErrInvalidDescription
	}
	if err := validate.Struct(p); err != nil {
		return ValidationError(err)
	}
	if p.DueDate != nil && DueDateInPast(*p.DueDate, now) {
		return errors.ErrDueDateInPast
	}
	return nil
}

// DueDateInPast reports whether due lies strictly before now.
func DueDateInPast(due, now time.Time) bool {
	return due.Before(now)
}

// ValidationError maps validator output onto the domain validation errors.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			switch verr.Field() {
			case "Username":
				return errors.ErrInvalidUsername
			case "Email":
				return errors.ErrInvalidEmail
			case "Password":
				return errors.ErrInvalidPassword
			case "Status":
				return errors.ErrInvalidStatus
			case "Title":
				if verr.Tag() == "required" {
					return errors.ErrMissingTaskFields
				}
				return errors.ErrInvalidTitle
			case "Description":
				if verr.Tag() == "required" {
					return errors.ErrMissingTaskFields
				}
				return errors.ErrInvalidDescription
			case "DueDate":
				return errors.ErrMissingTaskFields
			}
		}
	}
	return errors.ErrValidationFailed
}
