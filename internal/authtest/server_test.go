package authtest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/internal/authtest"
	"github.com/aretw0/nebulaboard/pkg/auth"
)

func post(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_LoginAndLogout(t *testing.T) {
	srv := authtest.NewServer(t)
	_, err := srv.AddUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	resp := post(t, srv.URL+"/auth/login", "", auth.LoginRequest{Email: "ada@example.com", Password: "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, srv.URL+"/auth/login", "", auth.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login auth.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.True(t, login.Validate().OK())
	assert.NotEmpty(t, login.Tokens.Access.Expires)

	resp = post(t, srv.URL+"/auth/logout", login.Tokens.Access.Token, struct{}{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The token is revoked afterwards.
	resp = post(t, srv.URL+"/auth/logout", login.Tokens.Access.Token, struct{}{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.EqualValues(t, 4, srv.Requests())
}

func TestServer_Register(t *testing.T) {
	srv := authtest.NewServer(t)
	req := auth.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "secret1", ConfirmPassword: "secret1"}

	resp := post(t, srv.URL+"/auth/register", "", req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, srv.URL+"/auth/register", "", req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	srv.OmitExpiry(true)
	resp = post(t, srv.URL+"/auth/login", "", auth.LoginRequest{Email: req.Email, Password: req.Password})
	var login auth.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.Empty(t, login.Tokens.Access.Expires)
}
