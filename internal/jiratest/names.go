package jiratest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/gi8lino/jiraas/internal/jira"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// UniqueName returns "<prefix>_<unix seconds>_<random suffix>". The prefix
// defaults to "test".
func UniqueName(prefix string) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "test"
	}
	suffix := nanoid.MustGenerate(suffixAlphabet, 6)
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().Unix(), suffix)
}

var versionRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// JiraVersion reads the site version from serverInfo, falling back to the
// v2 endpoint on servers without v3.
func JiraVersion(ctx context.Context, svc jira.Service) ([3]int, error) {
	info, err := svc.Get(ctx, "/rest/api/3/serverInfo", nil)
	if err != nil {
		if info, err = svc.Get(ctx, "/rest/api/2/serverInfo", nil); err != nil {
			return [3]int{}, fmt.Errorf("read server info: %w", err)
		}
	}
	raw, _ := info["version"].(string)
	m := versionRe.FindStringSubmatch(raw)
	if m == nil {
		return [3]int{}, fmt.Errorf("unrecognized version %q", raw)
	}
	var v [3]int
	for i := range v {
		v[i], _ = strconv.Atoi(m[i+1])
	}
	return v, nil
}

// IsCloudInstance reports whether the site is Jira Cloud. Errors count as
// not cloud.
func IsCloudInstance(ctx context.Context, svc jira.Service) bool {
	info, err := svc.Get(ctx, "/rest/api/3/serverInfo", nil)
	if err != nil {
		return false
	}
	dt, _ := info["deploymentType"].(string)
	return strings.EqualFold(dt, "Cloud")
}
