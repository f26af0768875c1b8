package jira

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoCredentials is returned by ResolveAuth when neither a bearer token
// nor an email and API token pair is set.
var ErrNoCredentials = errors.New("either a bearer token or email and API token are required")

// AuthFunc applies authentication to an outgoing request.
type AuthFunc func(*http.Request)

// NewBasicAuth authenticates with an Atlassian account email and API token.
func NewBasicAuth(email, token string) AuthFunc {
	email, token = strings.TrimSpace(email), strings.TrimSpace(token)
	return func(r *http.Request) {
		r.SetBasicAuth(email, token)
	}
}

// NewBearerAuth authenticates with a personal access token.
func NewBearerAuth(token string) AuthFunc {
	token = strings.TrimSpace(token)
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// ResolveAuth picks bearer auth when a bearer token is set and basic auth
// for a complete email and API token pair.
func ResolveAuth(bearerToken, email, token string) (auth AuthFunc, method string, err error) {
	bearerToken, email, token = strings.TrimSpace(bearerToken), strings.TrimSpace(email), strings.TrimSpace(token)
	switch {
	case bearerToken != "":
		return NewBearerAuth(bearerToken), "Bearer", nil
	case email != "" && token != "":
		return NewBasicAuth(email, token), "Basic", nil
	default:
		return nil, "", ErrNoCredentials
	}
}
