package flag

import (
	"io"
	"strings"

	"github.com/gi8lino/jiraas/internal/format"
	"github.com/gi8lino/jiraas/internal/logging"

	"github.com/containeroo/tinyflags"
)

// Config holds the parsed command line of jira-as.
type Config struct {
	Command    string            // subcommand, e.g. "issue"
	Args       []string          // positional arguments of the subcommand
	ConfigPath string            // Path to config file, empty uses defaults
	EnvFile    string            // .env file layered under the environment
	SkillDir   string            // root of per-project context directories
	Output     format.Output     // table, json or csv
	Debug      bool              // Enables debug logging
	LogFormat  logging.LogFormat // Log output format (text or json)
	Mock       bool              // Use the in-memory client
}

// splitCommand separates "COMMAND [ARGS...]" from the trailing flags. Args
// before the first dash-prefixed token are positional.
func splitCommand(args []string) (cmd string, pos, rest []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, args
	}
	cmd = args[0]
	i := 1
	for i < len(args) && !strings.HasPrefix(args[i], "-") {
		i++
	}
	return cmd, args[1:i], args[i:]
}

// ParseArgs parses CLI arguments into Config, handling version/help flags.
func ParseArgs(version string, args []string, out io.Writer, getEnv func(string) string) (Config, error) {
	cfg := Config{}
	cfg.Command, cfg.Args, args = splitCommand(args)

	tf := tinyflags.NewFlagSet("jira-as", tinyflags.ContinueOnError)
	tf.Version(version)
	tf.SetGetEnvFn(getEnv)
	tf.EnvPrefix("JIRA_AS")
	tf.SetOutput(out)

	// Sources
	tf.StringVar(&cfg.ConfigPath, "config", "", "Path to config file").Placeholder("PATH").Value()
	tf.StringVar(&cfg.EnvFile, "env-file", ".env", "Path to a .env file, skipped when missing").Placeholder("PATH").Value()
	tf.StringVar(&cfg.SkillDir, "skill-dir", ".jira", "Directory holding per-project context").Placeholder("DIR").Value()
	tf.BoolVar(&cfg.Mock, "mock", false, "Use the in-memory mock client").Value()

	// Output
	output := tf.String("output", string(format.OutputTable), "Output format").
		Choices(string(format.OutputTable), string(format.OutputJSON), string(format.OutputCSV)).
		Short("o").
		Value()

	// Logging
	tf.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging").Value()
	logFormat := tf.String("log-format", "text", "Log format").Choices("text", "json").Short("l").Value()

	// Parse
	if err := tf.Parse(args); err != nil {
		return Config{}, err
	}

	// Post-parse
	cfg.Output = format.Output(*output)
	cfg.LogFormat = logging.LogFormat(*logFormat)

	return cfg, nil
}
