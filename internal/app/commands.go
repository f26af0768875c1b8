package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/gi8lino/jiraas/internal/cache"
	"github.com/gi8lino/jiraas/internal/config"
	"github.com/gi8lino/jiraas/internal/credentials"
	"github.com/gi8lino/jiraas/internal/flag"
	"github.com/gi8lino/jiraas/internal/format"
	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/projectctx"
	"github.com/gi8lino/jiraas/internal/validators"
)

// runner carries everything a command needs.
type runner struct {
	flags  flag.Config
	cfg    config.Config
	getEnv func(string) string
	logger *slog.Logger
	out    io.Writer
	svc    jira.Service // nil for commands without needsService
	fields *cache.AutocompleteCache
}

// command is one jira-as subcommand.
type command struct {
	args         []string // required positional argument names
	optional     string   // optional trailing argument name
	needsService bool
	run          func(ctx context.Context, r *runner) error
}

func (c command) usage() string {
	parts := slices.Clone(c.args)
	if c.optional != "" {
		parts = append(parts, "["+c.optional+"]")
	}
	return strings.Join(parts, " ")
}

var commands = map[string]command{
	"whoami":      {needsService: true, run: whoami},
	"issue":       {args: []string{"KEY"}, needsService: true, run: showIssue},
	"search":      {args: []string{"JQL"}, needsService: true, run: search},
	"export":      {args: []string{"JQL"}, needsService: true, run: export},
	"transitions": {args: []string{"KEY"}, needsService: true, run: transitions},
	"comments":    {args: []string{"KEY"}, needsService: true, run: comments},
	"sla":         {args: []string{"KEY"}, needsService: true, run: slas},
	"fields":      {optional: "PREFIX", needsService: true, run: fields},
	"context":     {args: []string{"PROJECT"}, run: projectContext},
	"credentials": {args: []string{"check"}, run: credentialsCheck},
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

// render prints text in table mode and rows or raw data otherwise.
func (r *runner) render(text string, headers []string, rows [][]string, raw any) error {
	if r.flags.Output == format.OutputTable {
		_, err := fmt.Fprintln(r.out, text)
		return err
	}
	return format.Render(r.out, r.flags.Output, headers, rows, raw)
}

func (r *runner) issueKey() (string, error) {
	return validators.IssueKey(r.flags.Args[0])
}

func whoami(ctx context.Context, r *runner) error {
	user, err := r.svc.GetCurrentUser(ctx)
	if err != nil {
		return err
	}
	rows := [][]string{
		{"Account ID", validators.NestedString(user, "accountId", "")},
		{"Display Name", validators.NestedString(user, "displayName", "")},
		{"Email", validators.NestedString(user, "emailAddress", "")},
		{"Time Zone", validators.NestedString(user, "timeZone", "")},
	}
	return format.Render(r.out, r.flags.Output, []string{"Field", "Value"}, rows, user)
}

func showIssue(ctx context.Context, r *runner) error {
	key, err := r.issueKey()
	if err != nil {
		return err
	}
	issue, err := r.svc.GetIssue(ctx, key, jira.GetIssueOptions{})
	if err != nil {
		return err
	}
	return r.render(format.Issue(issue, true), format.IssueHeaders, format.IssueRows([]map[string]any{issue}), issue)
}

func search(ctx context.Context, r *runner) error {
	jql, err := validators.JQL(strings.Join(r.flags.Args, " "))
	if err != nil {
		return err
	}
	r.logger.Debug("searching issues", "jql", jql, "max_results", r.cfg.PageSize)
	res, err := r.svc.SearchIssues(ctx, jql, jira.SearchOptions{MaxResults: r.cfg.PageSize})
	if err != nil {
		return err
	}
	return r.render(format.SearchResults(res), format.IssueHeaders, format.IssueRows(format.Maps(res["issues"])), res)
}

// export writes every matching issue as one row per issue. Table mode uses
// the same rows as CSV.
func export(ctx context.Context, r *runner) error {
	res, err := r.svc.ExportSearchResults(ctx, strings.Join(r.flags.Args, " "), jira.ExportOptions{})
	if err != nil {
		return err
	}
	cols, _ := res["fields"].([]any)
	headers := make([]string, 0, len(cols))
	for _, c := range cols {
		headers = append(headers, fmt.Sprint(c))
	}
	data := format.Maps(res["data"])
	rows := make([][]string, 0, len(data))
	for _, d := range data {
		row := make([]string, 0, len(headers))
		for _, h := range headers {
			row = append(row, fmt.Sprint(d[h]))
		}
		rows = append(rows, row)
	}
	return format.Render(r.out, r.flags.Output, headers, rows, res)
}

func transitions(ctx context.Context, r *runner) error {
	key, err := r.issueKey()
	if err != nil {
		return err
	}
	ts, err := r.svc.GetTransitions(ctx, key)
	if err != nil {
		return err
	}
	return r.render(format.Transitions(ts), format.TransitionHeaders, format.TransitionRows(ts), ts)
}

func comments(ctx context.Context, r *runner) error {
	key, err := r.issueKey()
	if err != nil {
		return err
	}
	res, err := r.svc.GetComments(ctx, key, 0, r.cfg.PageSize)
	if err != nil {
		return err
	}
	list := format.Maps(res["comments"])
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		rows = append(rows, []string{
			validators.NestedString(c, "id", ""),
			validators.NestedString(c, "author.displayName", ""),
			validators.NestedString(c, "created", ""),
			format.Description(c["body"]),
		})
	}
	return r.render(format.Comments(list), []string{"ID", "Author", "Created", "Body"}, rows, res)
}

func slas(ctx context.Context, r *runner) error {
	key, err := r.issueKey()
	if err != nil {
		return err
	}
	res, err := r.svc.GetRequestSLAs(ctx, key)
	if err != nil {
		return err
	}
	list := format.Maps(res["values"])
	return r.render(format.SLA(list), format.SLAHeaders, format.SLARows(list), res)
}

// fields lists fields whose name starts with the optional prefix. The
// field list and name suggestions go through the autocomplete cache.
func fields(ctx context.Context, r *runner) error {
	all, ok := r.fields.Fields()
	if !ok {
		var err error
		if all, err = r.svc.GetFields(ctx); err != nil {
			return err
		}
		r.fields.SetFields(all)
	}

	byName := map[string]map[string]any{}
	names := make([]string, 0, len(all))
	for _, f := range all {
		n := validators.NestedString(f, "name", "")
		byName[n] = f
		names = append(names, n)
	}
	slices.Sort(names)
	r.fields.SetSuggestions("field", "", names)

	prefix := ""
	if len(r.flags.Args) > 0 {
		prefix = r.flags.Args[0]
	}
	matches, _ := r.fields.Suggestions("field", prefix)

	rows := make([][]string, 0, len(matches))
	raw := make([]map[string]any, 0, len(matches))
	for _, n := range matches {
		f := byName[n]
		custom := "no"
		if c, _ := f["custom"].(bool); c {
			custom = "yes"
		}
		rows = append(rows, []string{
			validators.NestedString(f, "id", ""),
			n,
			validators.NestedString(f, "schema.type", ""),
			custom,
		})
		raw = append(raw, f)
	}
	return format.Render(r.out, r.flags.Output, []string{"ID", "Name", "Type", "Custom"}, rows, raw)
}

func projectContext(ctx context.Context, r *runner) error {
	key, err := validators.ProjectKey(r.flags.Args[0])
	if err != nil {
		return err
	}
	loader := projectctx.NewLoader(r.flags.SkillDir, projectctx.SettingsFromConfig(&r.cfg), r.logger)
	pc := loader.Get(key)
	if r.flags.Output == format.OutputTable {
		_, err := fmt.Fprintln(r.out, projectctx.FormatSummary(pc))
		return err
	}
	s, err := format.JSON(pc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, s)
	return err
}

func credentialsCheck(ctx context.Context, r *runner) error {
	if action := r.flags.Args[0]; action != "check" {
		return fmt.Errorf("unknown credentials action %q: expected check", action)
	}
	creds, err := resolveCredentials(r.cfg, r.getEnv, r.logger)
	if err != nil {
		return err
	}
	mgr := credentials.NewManager(credentials.WithGetEnv(r.getEnv))
	user, err := mgr.Validate(ctx, creds)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.out, "Authenticated as %s (%s) on %s\n",
		validators.NestedString(user, "displayName", "unknown"),
		validators.NestedString(user, "emailAddress", creds.Email),
		creds.SiteURL,
	)
	return err
}
