package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/containeroo/resolver"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied to unset values.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 2 * time.Second
	DefaultPageSize     = 50
	DefaultCacheTTL     = time.Hour
	DefaultCacheSize    = 512
)

// DefaultAgileFields are the custom field ids most Jira Cloud sites use.
var DefaultAgileFields = AgileFields{
	EpicLink:    "customfield_10014",
	StoryPoints: "customfield_10016",
	EpicName:    "customfield_10011",
	EpicColor:   "customfield_10012",
	Sprint:      "customfield_10020",
}

// Environment variables that override file values.
const (
	EnvSiteURL        = "JIRA_SITE_URL"
	EnvEmail          = "JIRA_EMAIL"
	EnvAPIToken       = "JIRA_API_TOKEN"
	EnvDefaultProject = "JIRA_DEFAULT_PROJECT"
	EnvMockMode       = "JIRA_MOCK_MODE"
	EnvEpicLinkField  = "JIRA_EPIC_LINK_FIELD"
	EnvStoryPoints    = "JIRA_STORY_POINTS_FIELD"
	EnvEpicNameField  = "JIRA_EPIC_NAME_FIELD"
	EnvEpicColorField = "JIRA_EPIC_COLOR_FIELD"
	EnvSprintField    = "JIRA_SPRINT_FIELD"
)

// LoadConfig reads the YAML file at path. An empty path yields defaults.
// Environment overrides are applied through getEnv, secret references are
// resolved, and the result is validated.
func LoadConfig(path string, getEnv func(string) string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if getEnv != nil {
		applyEnv(&cfg, getEnv)
	}
	if err := resolveSecrets(&cfg); err != nil {
		return cfg, err
	}
	setDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decode unmarshals YAML and rejects unknown keys.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides file values with non-empty environment values.
func applyEnv(cfg *Config, getEnv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getEnv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.SiteURL, EnvSiteURL)
	set(&cfg.Email, EnvEmail)
	set(&cfg.APIToken, EnvAPIToken)
	set(&cfg.DefaultProject, EnvDefaultProject)
	set(&cfg.AgileFields.EpicLink, EnvEpicLinkField)
	set(&cfg.AgileFields.StoryPoints, EnvStoryPoints)
	set(&cfg.AgileFields.EpicName, EnvEpicNameField)
	set(&cfg.AgileFields.EpicColor, EnvEpicColorField)
	set(&cfg.AgileFields.Sprint, EnvSprintField)

	if v := getEnv(EnvMockMode); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MockMode = b
		}
	}
}

// resolveSecrets expands env:, file: and similar references in credential
// fields.
func resolveSecrets(cfg *Config) error {
	for name, field := range map[string]*string{
		"site_url":  &cfg.SiteURL,
		"email":     &cfg.Email,
		"api_token": &cfg.APIToken,
	} {
		if *field == "" {
			continue
		}
		v, err := resolver.ResolveVariable(*field)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*field = v
	}
	return nil
}

// setDefault assigns val to dst when dst is the zero value.
func setDefault[T comparable](dst *T, val T) {
	var zero T
	if *dst == zero {
		*dst = val
	}
}

// setDefaults fills in unset values.
func setDefaults(cfg *Config) {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	cfg.DefaultProject = strings.ToUpper(cfg.DefaultProject)

	setDefault(&cfg.Timeout, DefaultTimeout)
	setDefault(&cfg.MaxRetries, DefaultMaxRetries)
	setDefault(&cfg.RetryBackoff, DefaultRetryBackoff)
	setDefault(&cfg.PageSize, DefaultPageSize)
	setDefault(&cfg.Cache.TTL, DefaultCacheTTL)
	setDefault(&cfg.Cache.Size, DefaultCacheSize)

	setDefault(&cfg.AgileFields.EpicLink, DefaultAgileFields.EpicLink)
	setDefault(&cfg.AgileFields.StoryPoints, DefaultAgileFields.StoryPoints)
	setDefault(&cfg.AgileFields.EpicName, DefaultAgileFields.EpicName)
	setDefault(&cfg.AgileFields.EpicColor, DefaultAgileFields.EpicColor)
	setDefault(&cfg.AgileFields.Sprint, DefaultAgileFields.Sprint)
}

// newValidator returns a validator reporting fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateConfig checks the configuration and reports every violation.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if err := newValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config validation failed: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describe(fe))
		}
	}

	if strings.HasPrefix(cfg.SiteURL, "http://") {
		errs = append(errs, "site_url must use https")
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be > 0 when cache is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// describe turns a field error into "path: reason".
func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	switch fe.Tag() {
	case "url":
		return fmt.Sprintf("%s must be a valid URL", path)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", path)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", path, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", path, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", path, fe.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", path, fe.Param())
	case "alphanum", "min", "max":
		return fmt.Sprintf("%s must be a 2-10 character alphanumeric project key", path)
	default:
		return fmt.Sprintf("%s failed %q validation", path, fe.Tag())
	}
}

// AgileField returns the configured custom field id for an agile field
// name such as "story_points" or "epic_link".
func (c *Config) AgileField(name string) (string, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "epic_link":
		return c.AgileFields.EpicLink, nil
	case "story_points":
		return c.AgileFields.StoryPoints, nil
	case "epic_name":
		return c.AgileFields.EpicName, nil
	case "epic_color":
		return c.AgileFields.EpicColor, nil
	case "sprint":
		return c.AgileFields.Sprint, nil
	default:
		return "", fmt.Errorf("unknown agile field %q", name)
	}
}

// ProjectDefaults returns the defaults configured for a project key.
func (c *Config) ProjectDefaults(key string) (ProjectDefaults, bool) {
	d, ok := c.Projects[strings.ToUpper(key)]
	if !ok {
		d, ok = c.Projects[key]
	}
	return d, ok
}
