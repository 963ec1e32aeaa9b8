package validator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email      string `validate:"required,basic_email"`
	FullName   string `validate:"required"`
	Level      string `validate:"required,level" msg:"Level selection is required."`
	Region     string `validate:"region"`
	Role       string `validate:"required,oneof=Leader Follower" msg:"Role selection is required."`
	Hotel      string `validate:"omitempty,hotel_option"`
	AcceptRule bool   `validate:"required" field:"Terms" msg:"You must accept the rules and the terms and conditions."`
	AcceptToC  bool   `validate:"required" field:"Terms" msg:"You must accept the rules and the terms and conditions."`
}

func validForm() signupForm {
	return signupForm{
		Email:      "ola@example.no",
		FullName:   "Ola Nordmann",
		Level:      "Advanced",
		Region:     "Nordic",
		Role:       "Leader",
		Hotel:      "HotelOptionTwo",
		AcceptRule: true,
		AcceptToC:  true,
	}
}

func TestValidator_Check(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		mutate     func(*signupForm)
		rejections Rejections
	}{
		{
			name:   "valid",
			mutate: func(*signupForm) {},
		},
		{
			name:   "missing email",
			mutate: func(f *signupForm) { f.Email = "" },
			rejections: Rejections{
				{Field: "Email", Reason: MissingField},
			},
		},
		{
			name:   "malformed email",
			mutate: func(f *signupForm) { f.Email = "ola@localhost" },
			rejections: Rejections{
				{Field: "Email", Reason: "Please enter a valid email address."},
			},
		},
		{
			name:   "custom required message",
			mutate: func(f *signupForm) { f.Level = "" },
			rejections: Rejections{
				{Field: "Level", Reason: "Level selection is required."},
			},
		},
		{
			name:   "unknown level",
			mutate: func(f *signupForm) { f.Level = "Champion" },
			rejections: Rejections{
				{Field: "Level", Reason: "Please select a valid level."},
			},
		},
		{
			name:   "empty region allowed",
			mutate: func(f *signupForm) { f.Region = "" },
		},
		{
			name:   "unknown region",
			mutate: func(f *signupForm) { f.Region = "Asia" },
			rejections: Rejections{
				{Field: "Region", Reason: "Please select a valid region."},
			},
		},
		{
			name:   "unknown role",
			mutate: func(f *signupForm) { f.Role = "Switch" },
			rejections: Rejections{
				{Field: "Role", Reason: "Invalid role selection."},
			},
		},
		{
			name:   "unknown hotel option",
			mutate: func(f *signupForm) { f.Hotel = "Penthouse" },
			rejections: Rejections{
				{Field: "Hotel", Reason: "Please select a valid hotel option."},
			},
		},
		{
			name: "terms reported once and in field order",
			mutate: func(f *signupForm) {
				f.FullName = ""
				f.AcceptRule = false
				f.AcceptToC = false
				f.Email = "nope"
			},
			rejections: Rejections{
				{Field: "Email", Reason: "Please enter a valid email address."},
				{Field: "FullName", Reason: MissingField},
				{Field: "Terms", Reason: "You must accept the rules and the terms and conditions."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			assert.Equal(t, tt.rejections, v.Check(&form))
		})
	}
}

func TestRejections(t *testing.T) {
	var r Rejections
	assert.Equal(t, Rejection{}, r.Primary())
	assert.Equal(t, "validation failed", r.Error())

	r.Add("Email", "first")
	r.Add("Email", "second")
	r.Add("Role", "third")

	assert.Len(t, r, 2)
	assert.Equal(t, "first", r.Error())
	assert.Equal(t, []string{"Email", "Role"}, r.Fields())

	wrapped := fmt.Errorf("submit: %w", r)
	unwrapped, ok := AsRejections(wrapped)
	require.True(t, ok)
	assert.Equal(t, r, unwrapped)

	_, ok = AsRejections(errors.New("boom"))
	assert.False(t, ok)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("kari@example.com"))
	assert.True(t, IsEmail("kari.nordmann+no@mail.example.no"))
	assert.False(t, IsEmail("kari@example"))
	assert.False(t, IsEmail("kari example@test.no"))
	assert.False(t, IsEmail(""))
}

func TestPasswordStrength(t *testing.T) {
	v := New()
	type account struct {
		Password string `validate:"password_strength"`
	}

	assert.NoError(t, v.Validate(account{Password: "Secret123"}))
	assert.Error(t, v.Validate(account{Password: "secret123"}))
	assert.Error(t, v.Validate(account{Password: "Sh0rt"}))
}
