package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"norwegianopen/internal/pricing"

	"github.com/go-playground/validator/v10"
)

// MissingField is the reason given for an empty required field without its own message.
const MissingField = "Missing required field"

// Rejection names one offending field and a human readable reason.
type Rejection struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Rejections is an ordered list of field rejections. The first entry is the
// primary error shown to the submitter.
type Rejections []Rejection

func (r Rejections) Error() string {
	if len(r) == 0 {
		return "validation failed"
	}
	return r[0].Reason
}

func (r Rejections) Primary() Rejection {
	if len(r) == 0 {
		return Rejection{}
	}
	return r[0]
}

// Add appends a rejection unless the field has already been rejected.
func (r *Rejections) Add(field, reason string) {
	for _, existing := range *r {
		if existing.Field == field {
			return
		}
	}
	*r = append(*r, Rejection{Field: field, Reason: reason})
}

// Fields lists the rejected field names in order.
func (r Rejections) Fields() []string {
	fields := make([]string, 0, len(r))
	for _, rejection := range r {
		fields = append(fields, rejection.Field)
	}
	return fields
}

// AsRejections unwraps err into Rejections.
func AsRejections(err error) (Rejections, bool) {
	var r Rejections
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail applies the basic pattern used by every form: something@something.tld.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Custom validators
	v.RegisterValidation("password_strength", validatePasswordStrength)
	v.RegisterValidation("basic_email", validateBasicEmail)
	v.RegisterValidation("level", validateLevel)
	v.RegisterValidation("region", validateRegion)
	v.RegisterValidation("hotel_option", validateHotelOption)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Check validates i and converts failures into Rejections in struct field order.
// A `field` tag overrides the reported field name, fields sharing a name are
// reported once. A `msg` tag replaces the reason for a failed required rule.
func (v *Validator) Check(i any) Rejections {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return Rejections{{Field: "", Reason: err.Error()}}
	}

	t := reflect.TypeOf(i)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var rejections Rejections
	for _, fe := range validationErrors {
		field := fe.StructField()
		var tag reflect.StructTag
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			tag = sf.Tag
			if name := tag.Get("field"); name != "" {
				field = name
			}
		}
		rejections.Add(field, reason(fe, field, tag))
	}
	return rejections
}

func reason(fe validator.FieldError, field string, tag reflect.StructTag) string {
	switch fe.Tag() {
	case "required", "eq":
		if msg := tag.Get("msg"); msg != "" {
			return msg
		}
		return MissingField
	case "email", "basic_email":
		return "Please enter a valid email address."
	case "level":
		return "Please select a valid level."
	case "region":
		return "Please select a valid region."
	case "hotel_option":
		return "Please select a valid hotel option."
	case "oneof":
		return "Invalid " + strings.ToLower(field) + " selection."
	case "max":
		return field + " is too long."
	}
	return "Invalid value for " + field + "."
}

func validatePasswordStrength(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	// At least 8 characters
	if len(password) < 8 {
		return false
	}

	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasDigit := regexp.MustCompile(`\d`).MatchString(password)

	return hasUpper && hasLower && hasDigit
}

func validateBasicEmail(fl validator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

func validateLevel(fl validator.FieldLevel) bool {
	_, ok := pricing.CategoryOf(pricing.Level(fl.Field().String()))
	return ok
}

// validateRegion accepts an empty region, which is derived from the country later.
func validateRegion(fl validator.FieldLevel) bool {
	region := fl.Field().String()
	if region == "" {
		return true
	}
	_, ok := pricing.ParseRegion(region)
	return ok
}

func validateHotelOption(fl validator.FieldLevel) bool {
	_, ok := pricing.ParseHotelOption(fl.Field().String())
	return ok
}
