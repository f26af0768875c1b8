package config

import "time"

// Config is the jiraas configuration file.
type Config struct {
	SiteURL        string                     `yaml:"site_url" validate:"omitempty,url"`
	Email          string                     `yaml:"email" validate:"omitempty,email"`
	APIToken       string                     `yaml:"api_token"`
	DefaultProject string                     `yaml:"default_project" validate:"omitempty,alphanum,min=2,max=10"`
	Timeout        time.Duration              `yaml:"timeout" validate:"gte=0"`
	MaxRetries     int                        `yaml:"max_retries" validate:"gte=0,lte=10"`
	RetryBackoff   time.Duration              `yaml:"retry_backoff" validate:"gte=0"`
	RateLimit      float64                    `yaml:"rate_limit" validate:"gte=0"`
	PageSize       int                        `yaml:"page_size" validate:"gte=0,lte=1000"`
	MockMode       bool                       `yaml:"mock_mode"`
	Cache          CacheConfig                `yaml:"cache"`
	AgileFields    AgileFields                `yaml:"agile_fields"`
	Projects       map[string]ProjectDefaults `yaml:"projects" validate:"dive"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
	Size    int           `yaml:"size" validate:"gte=0"`
}

// AgileFields holds the instance specific custom field ids of agile fields.
type AgileFields struct {
	EpicLink    string `yaml:"epic_link" validate:"omitempty,startswith=customfield_"`
	StoryPoints string `yaml:"story_points" validate:"omitempty,startswith=customfield_"`
	EpicName    string `yaml:"epic_name" validate:"omitempty,startswith=customfield_"`
	EpicColor   string `yaml:"epic_color" validate:"omitempty,startswith=customfield_"`
	Sprint      string `yaml:"sprint" validate:"omitempty,startswith=customfield_"`
}

// ProjectDefaults are values applied when creating issues in a project.
type ProjectDefaults struct {
	IssueType  string   `yaml:"issue_type"`
	Priority   string   `yaml:"priority" validate:"omitempty,oneof=Highest High Medium Low Lowest"`
	Assignee   string   `yaml:"assignee"`
	Labels     []string `yaml:"labels"`
	Components []string `yaml:"components"`
}

// HasCredentials reports whether site, email and token are all set.
func (c *Config) HasCredentials() bool {
	return c.SiteURL != "" && c.Email != "" && c.APIToken != ""
}
