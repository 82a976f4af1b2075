// Package auth holds the typed request/response contracts of the remote
// authentication API and the service issuing those calls.
package auth

// LoginRequest is the body of POST <base>/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=6"`
}

// Validate checks the payload and reports every problem at once.
func (req LoginRequest) Validate() Result {
	return validateStruct(req)
}

// RegisterRequest is the body of POST <base>/register.
type RegisterRequest struct {
	Name            string `json:"name" validate:"min=2"`
	Email           string `json:"email" validate:"email"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"min=6"`
}

// Validate checks the payload and reports every problem at once.
// A password mismatch is reported on confirmPassword.
func (req RegisterRequest) Validate() Result {
	return validateStruct(req)
}

// User is the profile returned by the API.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Token is a bearer token and its RFC 3339 expiry.
type Token struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}

// Tokens is the access/refresh pair.
type Tokens struct {
	Access  Token `json:"access"`
	Refresh Token `json:"refresh"`
}

// LoginResponse is returned by login and register.
type LoginResponse struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// RegisterResponse has the same shape as LoginResponse.
type RegisterResponse = LoginResponse

// Validate checks the response shape.
func (resp LoginResponse) Validate() Result {
	return validateRules(
		rule{"user.id", resp.User.ID, "required"},
		rule{"user.email", resp.User.Email, "email"},
		rule{"tokens.access.token", resp.Tokens.Access.Token, "required"},
	)
}

// LogoutResponse is returned by logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

// Validate checks the response shape.
func (resp LogoutResponse) Validate() Result {
	return validateRules(rule{"message", resp.Message, "required"})
}
