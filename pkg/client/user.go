package client

import (
	"encoding/base64"

	"github.com/kart-io/ntfygo/pkg/errors"
)

// User holds the credentials attached to requests. Credentials are read-only
// inputs; the client never mutates them. A nil *User means anonymous access.
type User struct {
	username string
	password string
	token    string
	basic    bool
}

// NewUser creates a user authenticating with HTTP basic credentials.
// An empty password is allowed; some servers issue accounts without one.
func NewUser(username, password string) *User {
	return &User{username: username, password: password, basic: true}
}

// NewTokenUser creates a user authenticating with a bearer access token.
func NewTokenUser(token string) *User {
	return &User{token: token}
}

// AuthHeader returns the Authorization header value for the user.
func (u *User) AuthHeader() (string, error) {
	switch {
	case u.basic:
		credentials := base64.StdEncoding.EncodeToString([]byte(u.username + ":" + u.password))
		return "Basic " + credentials, nil
	case u.token != "":
		return "Bearer " + u.token, nil
	default:
		return "", errors.New(errors.CodeMissingCredentials, "user has no authentication information")
	}
}

// Username returns the username, empty for token users.
func (u *User) Username() string {
	return u.username
}

// String returns the username, or a placeholder for token users.
func (u *User) String() string {
	if u.username != "" {
		return u.username
	}
	return "token user"
}
