package domain

import (
	"fmt"
	"strings"
)

// AuthType selects the OAuth grant used to obtain a Reddit access token.
type AuthType int

const (
	// AppOnlyAuth uses the client_credentials grant (read-only access).
	AppOnlyAuth AuthType = iota
	// PasswordAuth uses the password grant and acts as a Reddit account.
	PasswordAuth
)

// String returns the OAuth grant_type of the AuthType.
func (a AuthType) String() string {
	switch a {
	case AppOnlyAuth:
		return "client_credentials"
	case PasswordAuth:
		return "password"
	default:
		return "unknown"
	}
}

// Credentials stores the values used to authenticate with Reddit.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Username     string // optional, required by write operations
	Password     string // optional, required by write operations
}

// CredentialsFromConfig extracts credentials from the Reddit configuration.
func CredentialsFromConfig(cfg RedditConfig) Credentials {
	return Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		UserAgent:    cfg.UserAgent,
		Username:     cfg.Username,
		Password:     cfg.Password,
	}
}

// AuthType returns PasswordAuth when both username and password are set.
func (c Credentials) AuthType() AuthType {
	if c.Username != "" && c.Password != "" {
		return PasswordAuth
	}
	return AppOnlyAuth
}

// CanSubmit reports whether the credentials allow write operations.
func (c Credentials) CanSubmit() bool {
	return c.AuthType() == PasswordAuth
}

// Validate checks that the credentials are usable.
func (c Credentials) Validate() error {
	var errors []string

	if c.ClientID == "" {
		errors = append(errors, "client id is required")
	}
	if c.ClientSecret == "" {
		errors = append(errors, "client secret is required")
	}
	if c.UserAgent == "" {
		errors = append(errors, "user agent is required")
	}
	if (c.Username == "") != (c.Password == "") {
		errors = append(errors, "username and password must be provided together")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid credentials: %s", strings.Join(errors, "; "))
	}
	return nil
}
