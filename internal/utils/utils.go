package utils

import (
	"net/http"
	"strings"
)

// ObfuscateHeader masks the credential of an Authorization header value and
// keeps its scheme, e.g. "Basic dX****M=".
func ObfuscateHeader(auth string) string {
	if auth == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok {
		return "[invalid header]"
	}
	return scheme + " " + MaskToken(strings.TrimSpace(token))
}

// MaskToken keeps the first and last two characters of a secret and stars
// the rest. Secrets of four characters or less are fully starred.
func MaskToken(token string) string {
	n := len(token)
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	return token[:2] + strings.Repeat("*", n-4) + token[n-2:]
}

// GetAuthorizationHeader returns the Authorization value apply would set.
func GetAuthorizationHeader(apply func(*http.Request)) string {
	if apply == nil {
		return ""
	}
	h := http.Header{}
	apply(&http.Request{Header: h})
	return h.Get("Authorization")
}
