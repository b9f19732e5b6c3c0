package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/bugboard/bugboard/internal/auth/domain"
	bugdomain "github.com/bugboard/bugboard/internal/bugs/domain"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
)

func errorsOf(t *testing.T, err error) Errors {
	t.Helper()
	var verrs Errors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	return verrs
}

func TestRegister(t *testing.T) {
	err := Struct(authdomain.RegisterRequest{Email: "not-an-email", Password: "123", ConfirmPassword: "1234"})
	verrs := errorsOf(t, err)

	assert.Equal(t, "Name is required", verrs.Get("name"))
	assert.Equal(t, "Please enter a valid email address", verrs.Get("email"))
	assert.Equal(t, "Password must be at least 6 characters", verrs.Get("password"))
	assert.Equal(t, "Passwords do not match", verrs.Get("confirmPassword"))

	assert.NoError(t, Struct(authdomain.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1",
	}))
}

func TestLogin(t *testing.T) {
	verrs := errorsOf(t, Struct(authdomain.LoginRequest{}))
	assert.Equal(t, "Email is required", verrs.Get("email"))
	assert.Equal(t, "Password is required", verrs.Get("password"))
}

func TestResetPassword(t *testing.T) {
	verrs := errorsOf(t, Struct(authdomain.ResetPasswordRequest{Token: "t", NewPassword: "abc"}))
	assert.Equal(t, "New password must be at least 6 characters", verrs.Get("newPassword"))
	assert.Equal(t, "Password confirmation is required", verrs.Get("confirmPassword"))
}

func TestProfileBioLimit(t *testing.T) {
	req := authdomain.UpdateProfileRequest{Name: "Ada", Bio: strings.Repeat("é", 300)}
	assert.NoError(t, Struct(req))

	req.Bio += "x"
	verrs := errorsOf(t, Struct(req))
	assert.Equal(t, "Bio must be at most 300 characters", verrs.Get("bio"))
}

func TestProjectAndMember(t *testing.T) {
	verrs := errorsOf(t, Struct(projectdomain.ProjectInput{}))
	assert.Equal(t, "Project name is required", verrs.Get("name"))

	verrs = errorsOf(t, Struct(projectdomain.AddMemberInput{UserEmail: "x", Role: "owner"}))
	assert.Equal(t, "Please enter a valid email address", verrs.Get("userEmail"))
	assert.Contains(t, verrs.Get("role"), "must be one of")
}

func TestBugCreate(t *testing.T) {
	verrs := errorsOf(t, Struct(bugdomain.CreateInput{Priority: "urgent"}))
	assert.Equal(t, "Title is required", verrs.Get("title"))
	assert.NotEmpty(t, verrs.Get("priority"))

	assert.NoError(t, Struct(bugdomain.CreateInput{Title: "Cart total wrong"}))
}

func TestVar(t *testing.T) {
	assert.Equal(t, "Comment is required", Var("", "Comment", "required"))
	assert.Empty(t, Var("hello", "Comment", "required"))
}

func TestErrors(t *testing.T) {
	e := Errors{}
	assert.NoError(t, e.OrNil())
	e.Add("title", "Title is required").Add("title", "ignored").Add("body", "Body is required")
	assert.Equal(t, "Title is required", e.Get("title"))
	assert.Equal(t, "Body is required; Title is required", e.Error())
}
