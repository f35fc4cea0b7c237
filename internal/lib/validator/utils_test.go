package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	govalidator "github.com/go-playground/validator/v10"
)

func TestPasswordViolations(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     []string
	}{
		{
			name:     "valid",
			password: "GoodPass123",
			want:     nil,
		},
		{
			name:     "valid with symbols",
			password: "GoodPass123!",
			want:     nil,
		},
		{
			name:     "too short",
			password: "Ab1",
			want:     []string{"Minimum 8 characters"},
		},
		{
			name:     "no uppercase or digit",
			password: "alllowercase",
			want:     []string{"At least one uppercase letter", "At least one number"},
		},
		{
			name:     "everything wrong",
			password: "",
			want: []string{
				"Minimum 8 characters",
				"At least one uppercase letter",
				"At least one lowercase letter",
				"At least one number",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PasswordViolations(tc.password))
		})
	}
}

func TestValidateStructUsesJSONFieldNames(t *testing.T) {
	type form struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required,min=3"`
	}
	validate := govalidator.New(govalidator.WithRequiredStructEnabled())

	errs := ValidateStruct(validate, form{Email: "not-an-email", Username: "ab"})
	require.Len(t, errs, 2)
	assert.Equal(t, "Value must be a valid email address", errs["email"])
	assert.Equal(t, "The minimum value is 3", errs["username"])
}

func TestValidateStructPasses(t *testing.T) {
	type form struct {
		Email string `json:"email" validate:"required,email"`
	}
	validate := govalidator.New(govalidator.WithRequiredStructEnabled())
	assert.Nil(t, ValidateStruct(validate, form{Email: "alice@example.com"}))
}

func TestPasswordTagValidator(t *testing.T) {
	type form struct {
		Password string `json:"password" validate:"required,password"`
	}
	validate := govalidator.New(govalidator.WithRequiredStructEnabled())
	require.NoError(t, validate.RegisterValidation("password", ValidatePassword))

	assert.Nil(t, ValidateStruct(validate, form{Password: "GoodPass123"}))

	errs := ValidateStruct(validate, form{Password: "weak"})
	require.Contains(t, errs, "password")
	assert.Contains(t, errs["password"], "Minimum 8 characters")
}
