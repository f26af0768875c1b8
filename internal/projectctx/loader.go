package projectctx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gopkg.in/yaml.v3"

	"github.com/gi8lino/jiraas/internal/config"
)

const (
	cacheSize = 64
	cacheTTL  = time.Hour
)

// SettingsFunc returns the settings context of a project, or nil.
type SettingsFunc func(key string) map[string]any

// Loader resolves and caches project contexts.
type Loader struct {
	skillRoot string
	settings  SettingsFunc
	logger    *slog.Logger
	cache     *expirable.LRU[string, *Context]
}

// NewLoader returns a loader reading skill directories under skillRoot.
// settings may be nil.
func NewLoader(skillRoot string, settings SettingsFunc, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		skillRoot: skillRoot,
		settings:  settings,
		logger:    logger,
		cache:     expirable.NewLRU[string, *Context](cacheSize, nil, cacheTTL),
	}
}

// SkillPath returns the skill directory of a project.
func (l *Loader) SkillPath(key string) string {
	return filepath.Join(l.skillRoot, "jira-project-"+strings.ToUpper(key))
}

// Get returns the merged context of a project, loading it on first use.
func (l *Loader) Get(key string) *Context {
	key = strings.ToUpper(key)
	if c, ok := l.cache.Get(key); ok {
		return c
	}
	var settings map[string]any
	if l.settings != nil {
		settings = l.settings(key)
	}
	data, src := MergeContexts(l.loadSkill(key), settings)
	c := fromMap(key, data, src)
	l.cache.Add(key, c)
	return c
}

// Has reports whether a project has a skill directory or settings context.
func (l *Loader) Has(key string) bool {
	if fi, err := os.Stat(l.SkillPath(key)); err == nil && fi.IsDir() {
		return true
	}
	return l.settings != nil && l.settings(strings.ToUpper(key)) != nil
}

// Clear drops cached contexts; without keys the whole cache is cleared.
func (l *Loader) Clear(keys ...string) {
	if len(keys) == 0 {
		l.cache.Purge()
		return
	}
	for _, k := range keys {
		l.cache.Remove(strings.ToUpper(k))
	}
}

// Cached returns the number of cached contexts.
func (l *Loader) Cached() int { return l.cache.Len() }

// loadSkill reads context/{metadata,workflows,patterns} and defaults from
// the skill directory. It returns nil when nothing was found.
func (l *Loader) loadSkill(key string) map[string]any {
	dir := l.SkillPath(key)
	out := map[string]any{}
	for name, path := range map[string]string{
		"metadata":  filepath.Join(dir, "context", "metadata"),
		"workflows": filepath.Join(dir, "context", "workflows"),
		"patterns":  filepath.Join(dir, "context", "patterns"),
		"defaults":  filepath.Join(dir, "defaults"),
	} {
		m, err := loadFile(path)
		if err != nil {
			l.logger.Warn("skipping project context file", "project", key, "file", name, "error", err)
			continue
		}
		if m != nil {
			out[name] = m
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// loadFile reads base.json, base.yaml or base.yml, whichever exists first.
// A missing file is not an error.
func loadFile(base string) (map[string]any, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		m, err := LoadFile(base + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return m, err
	}
	return nil, nil
}

// LoadFile decodes a JSON or YAML object file.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if m == nil {
		return nil, fmt.Errorf("decode %s: not an object", path)
	}
	return m, nil
}

// SettingsFromConfig exposes the project defaults of the config file as a
// settings context.
func SettingsFromConfig(cfg *config.Config) SettingsFunc {
	return func(key string) map[string]any {
		d, ok := cfg.ProjectDefaults(key)
		if !ok {
			return nil
		}
		global := map[string]any{}
		for k, v := range map[string]string{"issue_type": d.IssueType, "priority": d.Priority, "assignee": d.Assignee} {
			if v != "" {
				global[k] = v
			}
		}
		if len(d.Labels) > 0 {
			global["labels"] = toAny(d.Labels)
		}
		if len(d.Components) > 0 {
			global["components"] = toAny(d.Components)
		}
		return map[string]any{"defaults": map[string]any{"global": global}}
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
