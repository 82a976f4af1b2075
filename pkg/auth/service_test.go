package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/internal/authtest"
	"github.com/aretw0/nebulaboard/pkg/auth"
	"github.com/aretw0/nebulaboard/pkg/httpclient"
)

type tokenHolder struct{ token string }

func (h *tokenHolder) Token() (string, bool) { return h.token, h.token != "" }

func TestService_Login(t *testing.T) {
	srv := authtest.NewServer(t)
	_, err := srv.AddUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	svc := auth.NewService(httpclient.New(srv.URL))
	ctx := context.Background()

	t.Run("Invalid Payload Makes No Request", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginRequest{Email: "bad", Password: "123"})
		var vErr *auth.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Len(t, vErr.Issues, 2)
		assert.Zero(t, srv.Requests())
	})

	t.Run("Wrong Password", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "wrong!!"})
		assert.ErrorIs(t, err, httpclient.ErrUnauthorized)
	})

	t.Run("Success", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "Ada", resp.User.Name)
		assert.NotEmpty(t, resp.Tokens.Access.Token)
		assert.NotEmpty(t, resp.Tokens.Refresh.Token)
	})
}

func TestService_RegisterAndLogout(t *testing.T) {
	srv := authtest.NewServer(t)
	holder := &tokenHolder{}
	svc := auth.NewService(httpclient.New(srv.URL, httpclient.WithTokenSource(holder)), auth.WithBasePath("auth/"))
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "secret1", ConfirmPassword: "other1"})
	var vErr *auth.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []string{auth.MsgPasswordsDoNotMatch}, vErr.Messages("confirmPassword"))

	resp, err := svc.Register(ctx, auth.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", resp.User.Email)

	_, err = svc.Logout(ctx)
	assert.ErrorIs(t, err, httpclient.ErrUnauthorized, "logout needs the bearer token")

	holder.token = resp.Tokens.Access.Token
	out, err := svc.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Logout successful", out.Message)
}
