package validators

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

const (
	MaxJQLLength        = 10000
	MaxAttachmentSize   = 10 * 1024 * 1024
	MaxAvatarSize       = 1 * 1024 * 1024
	MinProjectNameLen   = 2
	MaxProjectNameLen   = 80
	MaxCategoryNameLen  = 255
	minProjectKeyLength = 2
	maxProjectKeyLength = 10
)

var (
	issueKeyRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[0-9]+$`)
	projectKeyRe = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)
	dangerousJQL = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bDROP\b`),
		regexp.MustCompile(`(?i)\bDELETE\b`),
		regexp.MustCompile(`(?i)\bINSERT\b`),
		regexp.MustCompile(`(?i)\bUPDATE\b`),
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
	}
)

// ValidProjectTypes lists the project type keys Jira Cloud accepts.
var ValidProjectTypes = []string{"software", "business", "service_desk"}

// ValidAssigneeTypes lists the default assignee strategies for a project.
var ValidAssigneeTypes = []string{"PROJECT_LEAD", "UNASSIGNED", "COMPONENT_LEAD"}

// ValidAvatarExtensions lists the accepted avatar file extensions.
var ValidAvatarExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// ProjectTemplates maps template shortcuts onto full Jira template keys.
var ProjectTemplates = map[string]string{
	"scrum":            "com.pyxis.greenhopper.jira:gh-simplified-agility-scrum",
	"kanban":           "com.pyxis.greenhopper.jira:gh-simplified-agility-kanban",
	"basic":            "com.pyxis.greenhopper.jira:gh-simplified-basic",
	"classic-scrum":    "com.pyxis.greenhopper.jira:gh-scrum-template",
	"classic-kanban":   "com.pyxis.greenhopper.jira:gh-kanban-template",
	"bug-tracking":     "com.pyxis.greenhopper.jira:gh-simplified-bug-tracking",
	"project-mgmt":     "com.atlassian.jira-core-project-templates:jira-core-simplified-project-management",
	"task-tracking":    "com.atlassian.jira-core-project-templates:jira-core-simplified-task-tracking",
	"process-control":  "com.atlassian.jira-core-project-templates:jira-core-simplified-process-control",
	"it-service-desk":  "com.atlassian.servicedesk:simplified-it-service-management",
	"general-service":  "com.atlassian.servicedesk:simplified-general-service-desk",
	"customer-service": "com.atlassian.servicedesk:simplified-external-service-desk",
}

// IssueKey validates an issue key and returns it upper-cased.
func IssueKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return "", jiraerr.Validation("issue key cannot be empty")
	}
	if !issueKeyRe.MatchString(key) {
		return "", jiraerr.Validation("invalid issue key format: %q (expected PROJECT-123)", key)
	}
	return key, nil
}

// ProjectKey validates a project key and returns it upper-cased.
func ProjectKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return "", jiraerr.Validation("project key cannot be empty")
	}
	if len(key) < minProjectKeyLength || len(key) > maxProjectKeyLength {
		return "", jiraerr.Validation("project key must be %d-%d characters, got %d", minProjectKeyLength, maxProjectKeyLength, len(key))
	}
	if !projectKeyRe.MatchString(key) {
		return "", jiraerr.Validation("invalid project key %q: must start with a letter and contain only letters and digits", key)
	}
	return key, nil
}

// JQL trims a query and rejects empty, oversized or injection-shaped input.
func JQL(jql string) (string, error) {
	jql = strings.TrimSpace(jql)
	if jql == "" {
		return "", jiraerr.Validation("JQL query cannot be empty")
	}
	if len(jql) > MaxJQLLength {
		return "", jiraerr.Validation("JQL query too long: %d characters (max %d)", len(jql), MaxJQLLength)
	}
	for _, re := range dangerousJQL {
		if re.MatchString(jql) {
			return "", jiraerr.Validation("JQL query contains a disallowed pattern: %s", re.FindString(jql))
		}
	}
	return jql, nil
}

// TransitionID validates a numeric, non-negative transition id.
func TransitionID(id any) (string, error) {
	s := strings.TrimSpace(fmt.Sprint(id))
	if s == "" {
		return "", jiraerr.Validation("transition ID cannot be empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", jiraerr.Validation("transition ID must be numeric, got %q", s)
	}
	if n < 0 {
		return "", jiraerr.Validation("transition ID cannot be negative, got %d", n)
	}
	return s, nil
}

// ProjectType validates and lower-cases a project type key.
func ProjectType(t string) (string, error) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "", jiraerr.Validation("project type cannot be empty")
	}
	if !slices.Contains(ValidProjectTypes, t) {
		return "", jiraerr.Validation("invalid project type %q, valid types: %s", t, strings.Join(ValidProjectTypes, ", "))
	}
	return t, nil
}

// AssigneeType validates and upper-cases a default assignee strategy.
func AssigneeType(t string) (string, error) {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return "", jiraerr.Validation("assignee type cannot be empty")
	}
	if !slices.Contains(ValidAssigneeTypes, t) {
		return "", jiraerr.Validation("invalid assignee type %q, valid types: %s", t, strings.Join(ValidAssigneeTypes, ", "))
	}
	return t, nil
}

// ProjectTemplate expands a shortcut or passes a full template key through.
func ProjectTemplate(t string) (string, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", jiraerr.Validation("project template cannot be empty")
	}
	if full, ok := ProjectTemplates[strings.ToLower(t)]; ok {
		return full, nil
	}
	if strings.ContainsAny(t, ":.") {
		return t, nil
	}
	shortcuts := make([]string, 0, len(ProjectTemplates))
	for k := range ProjectTemplates {
		shortcuts = append(shortcuts, k)
	}
	slices.Sort(shortcuts)
	return "", jiraerr.Validation("unknown project template %q, valid shortcuts: %s", t, strings.Join(shortcuts, ", "))
}

// ProjectName validates the length of a project name.
func ProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", jiraerr.Validation("project name cannot be empty")
	}
	if n := len([]rune(name)); n < MinProjectNameLen || n > MaxProjectNameLen {
		return "", jiraerr.Validation("project name must be %d-%d characters, got %d", MinProjectNameLen, MaxProjectNameLen, n)
	}
	return name, nil
}

// CategoryName validates the length of a project category name.
func CategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", jiraerr.Validation("category name cannot be empty")
	}
	if n := len([]rune(name)); n > MaxCategoryNameLen {
		return "", jiraerr.Validation("category name must be at most %d characters, got %d", MaxCategoryNameLen, n)
	}
	return name, nil
}

// URL normalizes a Jira site URL: https is required, added when no scheme is
// given, and the trailing slash is removed.
func URL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", jiraerr.Validation("URL cannot be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", jiraerr.Validation("invalid URL %q: %v", raw, err)
	}
	if u.Scheme != "https" {
		return "", jiraerr.Validation("URL must use HTTPS, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", jiraerr.Validation("URL %q has no host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Email validates an address and returns it lower-cased.
func Email(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return "", jiraerr.Validation("email cannot be empty")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || !strings.Contains(addr[strings.LastIndex(addr, "@")+1:], ".") {
		return "", jiraerr.Validation("invalid email address: %q", addr)
	}
	return addr, nil
}

// FilePath returns the absolute path, optionally checking that a regular
// file of at most MaxAttachmentSize exists.
func FilePath(path string, mustExist bool) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", jiraerr.Validation("file path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", jiraerr.Validation("invalid file path %q: %v", path, err)
	}
	if !mustExist {
		return abs, nil
	}
	return abs, checkFile(abs, MaxAttachmentSize)
}

// AvatarFile validates an avatar image path by extension and size.
func AvatarFile(path string) (string, error) {
	abs, err := FilePath(path, false)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(abs))
	if !slices.Contains(ValidAvatarExtensions, ext) {
		return "", jiraerr.Validation("invalid avatar file type %q, allowed: %s", ext, strings.Join(ValidAvatarExtensions, ", "))
	}
	return abs, checkFile(abs, MaxAvatarSize)
}

// checkFile ensures path is an existing regular file not larger than limit.
func checkFile(path string, limit int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return jiraerr.Validation("file not found: %s", path)
		}
		return jiraerr.Validation("cannot access %s: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return jiraerr.Validation("not a regular file: %s", path)
	}
	if info.Size() > limit {
		return jiraerr.Validation("file too large: %d bytes (max %d)", info.Size(), limit)
	}
	return nil
}
