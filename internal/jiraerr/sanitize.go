package jiraerr

import (
	"errors"
	"fmt"
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

// sanitizers strip credentials that end up in URLs, headers or error bodies.
var sanitizers = []struct {
	re   *regexp.Regexp
	repl string
}{
	// Authorization header values
	{regexp.MustCompile(`(?i)\b(Basic|Bearer)\s+[A-Za-z0-9+/=._\-]{8,}`), "$1 " + redacted},
	// key=value / key: value pairs
	{regexp.MustCompile(`(?i)\b(api[_-]?token|access[_-]?token|token|password|passwd|secret)(["']?\s*[:=]\s*["']?)[^\s"'&,;]+`), "$1$2" + redacted},
	// Atlassian API tokens
	{regexp.MustCompile(`\bATATT[A-Za-z0-9_\-=]{10,}`), redacted},
	// user:secret@host in URLs
	{regexp.MustCompile(`(https?://)[^/\s:@]+:[^/\s@]+@`), "${1}" + redacted + "@"},
}

// Sanitize removes tokens, passwords and credentials from msg.
func Sanitize(msg string) string {
	for _, s := range sanitizers {
		msg = s.re.ReplaceAllString(msg, s.repl)
	}
	return msg
}

// Hint returns a short remediation hint for a kind, or "".
func Hint(kind Kind) string {
	switch kind {
	case KindAuthentication:
		return "check JIRA_EMAIL and JIRA_API_TOKEN; tokens are managed at https://id.atlassian.com/manage-profile/security/api-tokens"
	case KindPermission:
		return "the account lacks permission for this operation; ask a Jira administrator"
	case KindNotFound:
		return "verify the key or id exists and is visible to this account"
	case KindValidation:
		return "check the request fields against the project's create/edit screens"
	case KindConflict:
		return "the resource changed concurrently; fetch it again and retry"
	case KindRateLimit:
		return "too many requests; wait before retrying"
	case KindServer:
		return "Jira returned a server error; retry later"
	case KindConnection:
		return "check JIRA_SITE_URL and network connectivity"
	default:
		return ""
	}
}

// Print writes a sanitized, user-facing rendition of err to w.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "Error: %s\n", Sanitize(err.Error())) // nolint:errcheck
		return
	}
	fmt.Fprintf(w, "Error (%s): %s\n", e.Kind, Sanitize(err.Error())) // nolint:errcheck
	if e.RetryAfter > 0 {
		fmt.Fprintf(w, "  retry after %ds\n", e.RetryAfter) // nolint:errcheck
	}
	if h := Hint(e.Kind); h != "" {
		fmt.Fprintf(w, "  hint: %s\n", h) // nolint:errcheck
	}
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindAuthentication, KindPermission:
		return 3
	case KindNotFound:
		return 4
	case KindValidation:
		return 2
	default:
		return 1
	}
}
