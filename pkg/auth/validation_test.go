package auth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/pkg/auth"
)

func TestLoginRequest_Validate(t *testing.T) {
	t.Run("Reports Every Issue", func(t *testing.T) {
		res := auth.LoginRequest{Email: "bad", Password: "123"}.Validate()
		assert.False(t, res.OK())
		assert.Equal(t, []auth.Issue{
			{Field: "email", Message: auth.MsgEmailInvalid},
			{Field: "password", Message: auth.MsgPasswordTooShort},
		}, res.Issues)

		var vErr *auth.ValidationError
		require.True(t, errors.As(res.Err(), &vErr))
		assert.Equal(t, []string{auth.MsgEmailInvalid}, vErr.Messages("email"))
		assert.Contains(t, vErr.Error(), "password: "+auth.MsgPasswordTooShort)
	})

	t.Run("Valid", func(t *testing.T) {
		res := auth.LoginRequest{Email: "ada@example.com", Password: "123456"}.Validate()
		assert.True(t, res.OK())
		assert.NoError(t, res.Err())
	})
}

func TestRegisterRequest_Validate(t *testing.T) {
	valid := auth.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1"}
	assert.True(t, valid.Validate().OK())

	t.Run("Mismatch Names Confirm Field", func(t *testing.T) {
		req := valid
		req.ConfirmPassword = "secret2"
		res := req.Validate()
		assert.Equal(t, []auth.Issue{{Field: "confirmPassword", Message: auth.MsgPasswordsDoNotMatch}}, res.Issues)
	})

	t.Run("All Fields", func(t *testing.T) {
		res := auth.RegisterRequest{Name: "A", Email: "a@b", Password: "12345", ConfirmPassword: "1234"}.Validate()
		var fields []string
		for _, is := range res.Issues {
			fields = append(fields, is.Field+"="+is.Message)
		}
		assert.Equal(t, []string{
			"name=" + auth.MsgNameTooShort,
			"email=" + auth.MsgEmailInvalid,
			"password=" + auth.MsgPasswordTooShort,
			"confirmPassword=" + auth.MsgConfirmPasswordTooShort,
			"confirmPassword=" + auth.MsgPasswordsDoNotMatch,
		}, fields)
	})

	t.Run("Empty Email Is Invalid", func(t *testing.T) {
		req := valid
		req.Email = ""
		assert.Equal(t, []auth.Issue{{Field: "email", Message: auth.MsgEmailInvalid}}, req.Validate().Issues)
	})

	t.Run("Length Counts Characters", func(t *testing.T) {
		req := valid
		req.Name = "Zé"
		assert.True(t, req.Validate().OK())
	})
}

func TestValidEmail(t *testing.T) {
	good := []string{"ada@example.com", "first.last+tag@sub.example.org", "x_y@a-b.io"}
	bad := []string{"", "bad", "a@b", "@example.com", ".ada@example.com", "a..b@example.com", "Ada <ada@example.com>", "ada@.com", "ada@example"}

	for _, e := range good {
		assert.True(t, auth.ValidEmail(e), e)
	}
	for _, e := range bad {
		assert.False(t, auth.ValidEmail(e), e)
	}
}

func TestLoginResponse_Validate(t *testing.T) {
	resp := auth.LoginResponse{
		User:   auth.User{ID: "1", Email: "ada@example.com"},
		Tokens: auth.Tokens{Access: auth.Token{Token: "t"}},
	}
	assert.True(t, resp.Validate().OK())

	resp.Tokens.Access.Token = ""
	resp.User.Email = "nope"
	res := resp.Validate()
	assert.Len(t, res.Issues, 2)

	assert.Equal(t, []auth.Issue{
		{Field: "user.email", Message: auth.MsgEmailInvalid},
		{Field: "tokens.access.token", Message: auth.MsgRequired},
	}, res.Issues)

	assert.Equal(t, []auth.Issue{{Field: "message", Message: auth.MsgRequired}}, auth.LogoutResponse{}.Validate().Issues)
}
