package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/validators"
)

const (
	serviceName = "jira-assistant"
	envPrefix   = "JIRA"
	probeUser   = "__probe__"
)

// Field names, also used as keychain user names.
const (
	FieldSiteURL  = "site_url"
	FieldEmail    = "email"
	FieldAPIToken = "api_token"
)

// Backend names where credentials came from or were stored.
type Backend string

const (
	BackendEnvironment Backend = "environment"
	BackendKeychain    Backend = "keychain"
)

// ErrNotFound is returned when no complete credential set is available.
var ErrNotFound = errors.New("No JIRA credentials found")

// Credentials are the values needed to authenticate against a Jira site.
type Credentials struct {
	SiteURL  string
	Email    string
	APIToken string
}

// Manager resolves credentials from the environment first and the keychain
// second.
type Manager struct {
	getEnv     func(string) string
	store      Store
	httpClient *http.Client
}

// Option configures a Manager.
type Option func(*Manager)

// WithGetEnv sets the environment lookup.
func WithGetEnv(fn func(string) string) Option { return func(m *Manager) { m.getEnv = fn } }

// WithStore sets the secret store.
func WithStore(s Store) Option { return func(m *Manager) { m.store = s } }

// WithHTTPClient sets the client used by Validate.
func WithHTTPClient(c *http.Client) Option { return func(m *Manager) { m.httpClient = c } }

// NewManager returns a Manager using os.Getenv and the OS keychain unless
// overridden.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		getEnv:     os.Getenv,
		store:      KeyringStore{},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process wide Manager.
func Default() *Manager {
	defaultOnce.Do(func() { defaultManager = NewManager() })
	return defaultManager
}

// ServiceName is the keychain service credentials are stored under.
func (m *Manager) ServiceName() string { return serviceName }

// EnvPrefix is the prefix of the credential environment variables.
func (m *Manager) EnvPrefix() string { return envPrefix }

// Fields lists the credential field names.
func (m *Manager) Fields() []string {
	return []string{FieldSiteURL, FieldEmail, FieldAPIToken}
}

// NotFoundHint explains how to provide credentials.
func (m *Manager) NotFoundHint() string {
	return "Set JIRA_SITE_URL, JIRA_EMAIL and JIRA_API_TOKEN, or store them in the keychain. " +
		"Create an API token at https://id.atlassian.com/manage-profile/security/api-tokens"
}

func (m *Manager) envName(field string) string {
	return envPrefix + "_" + strings.ToUpper(field)
}

// IsKeychainAvailable reports whether the store can be queried.
func (m *Manager) IsKeychainAvailable() bool {
	_, err := m.store.Get(serviceName, probeUser)
	return err == nil || errors.Is(err, ErrSecretNotFound)
}

// Get returns credentials and the backend that supplied them. Environment
// values win per field; missing fields are filled from the keychain.
func (m *Manager) Get() (Credentials, Backend, error) {
	vals := map[string]string{}
	for _, f := range m.Fields() {
		vals[f] = strings.TrimSpace(m.getEnv(m.envName(f)))
	}
	backend := BackendEnvironment

	if vals[FieldSiteURL] == "" || vals[FieldEmail] == "" || vals[FieldAPIToken] == "" {
		if m.IsKeychainAvailable() {
			for _, f := range m.Fields() {
				if vals[f] != "" {
					continue
				}
				if v, err := m.store.Get(serviceName, f); err == nil && v != "" {
					vals[f] = v
					backend = BackendKeychain
				}
			}
		}
	}

	creds := Credentials{SiteURL: vals[FieldSiteURL], Email: vals[FieldEmail], APIToken: vals[FieldAPIToken]}
	if creds.SiteURL == "" || creds.Email == "" || creds.APIToken == "" {
		return Credentials{}, "", fmt.Errorf("%w. %s", ErrNotFound, m.NotFoundHint())
	}
	return creds, backend, nil
}

// Store validates and saves credentials to the keychain.
func (m *Manager) Store(c Credentials) (Backend, error) {
	if strings.TrimSpace(c.APIToken) == "" {
		return "", jiraerr.Validation("API token cannot be empty")
	}
	site, err := validators.URL(c.SiteURL)
	if err != nil {
		return "", err
	}
	email, err := validators.Email(c.Email)
	if err != nil {
		return "", err
	}
	if !m.IsKeychainAvailable() {
		return "", fmt.Errorf("keychain is not available: %s", m.NotFoundHint())
	}

	for field, v := range map[string]string{FieldSiteURL: site, FieldEmail: email, FieldAPIToken: strings.TrimSpace(c.APIToken)} {
		if err := m.store.Set(serviceName, field, v); err != nil {
			return "", fmt.Errorf("store %s: %w", field, err)
		}
	}
	return BackendKeychain, nil
}

// Delete removes stored credentials from the keychain.
func (m *Manager) Delete() error {
	var errs []error
	for _, f := range m.Fields() {
		if err := m.store.Delete(serviceName, f); err != nil && !errors.Is(err, ErrSecretNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}

// Validate calls /rest/api/3/myself with the credentials and returns the
// user on success.
func (m *Manager) Validate(ctx context.Context, c Credentials) (map[string]any, error) {
	site := strings.TrimRight(c.SiteURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site+"/rest/api/3/myself", nil)
	if err != nil {
		return nil, jiraerr.Validation("invalid site URL %q: %v", c.SiteURL, err)
	}
	req.SetBasicAuth(c.Email, c.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, jiraerr.Wrap(jiraerr.KindConnection, err, "Connection to %s timed out", site)
		}
		return nil, jiraerr.Wrap(jiraerr.KindConnection, err, "Cannot connect to %s", site)
	}
	defer resp.Body.Close() // nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, jiraerr.New(jiraerr.KindAuthentication, "Invalid credentials: check email and API token")
	case resp.StatusCode == http.StatusForbidden:
		return nil, jiraerr.New(jiraerr.KindAuthentication, "Access forbidden: the account cannot use the REST API")
	case resp.StatusCode >= 400:
		return nil, jiraerr.FromStatus(resp.StatusCode, "validate credentials", "")
	}

	var user map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindServer, err, "decode user")
	}
	return user, nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// GetCredentials resolves credentials with the default Manager.
func GetCredentials() (Credentials, error) {
	c, _, err := Default().Get()
	return c, err
}

// StoreCredentials stores credentials with the default Manager.
func StoreCredentials(c Credentials) (Backend, error) {
	return Default().Store(c)
}

// ValidateCredentials validates credentials with the default Manager.
func ValidateCredentials(ctx context.Context, c Credentials) (map[string]any, error) {
	return Default().Validate(ctx, c)
}
