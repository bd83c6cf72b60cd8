package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vk/chaingrid/internal/app"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/events"
	"github.com/vk/chaingrid/internal/expr"
	"github.com/vk/chaingrid/modules/datarequest"
)

const envPrefix = "CHAINGRID_"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flags holds raw flag values before they are validated into an app.Config.
type flags struct {
	cfg     app.Config
	envFile string
	vars    []string
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	f := &flags{}
	var parsed *app.Config

	build := func(mode app.Mode) error {
		vars, err := parseVars(f.vars)
		if err != nil {
			return err
		}
		f.cfg.Mode = mode
		f.cfg.Vars = vars
		f.cfg.LogLevel = strings.ToLower(f.cfg.LogLevel)
		f.cfg.LogFormat = strings.ToLower(f.cfg.LogFormat)
		cfg, err := app.NewConfig(f.cfg)
		if err != nil {
			return err
		}
		parsed = cfg
		return nil
	}

	root := newRootCommand(f)
	root.AddCommand(newServeCommand(f, build), newRunCommand(f, build))
	// cobra falls back to os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	if err := root.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if parsed == nil {
		// Help was printed.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "mode", parsed.Mode)
	return parsed, false, nil
}

func newRootCommand(f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:   "chaingrid <command>",
		Short: "ChainGrid - a visual node-graph chain runner.",
		Long: `ChainGrid - a visual node-graph chain runner.

Chains are graphs of Code, DataRequest and Conditional nodes walked
depth-first from a start node. Serve a chain to the UI shell, or run
one headless from an HCL grid file.

Every flag can also be set through a CHAINGRID_* environment variable,
e.g. --log-level as CHAINGRID_LOG_LEVEL. A .env file is read first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd, f.envFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "Path to a .env file loaded before reading CHAINGRID_* variables.")
	pf.StringVar(&f.cfg.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.cfg.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVarP(&f.cfg.GridPath, "grid", "g", "", "Path to the grid file or directory.")
	pf.StringArrayVar(&f.vars, "var", nil, "Run variable as name=value; the value is read as an HCL literal. Repeatable.")
	pf.StringVar(&f.cfg.APIURL, "api-url", datasource.DefaultBaseURL, "Base URL data source endpoints are derived from.")
	pf.DurationVar(&f.cfg.HTTPTimeout, "http-timeout", datarequest.DefaultTimeout, "Timeout for DataRequest calls.")
	pf.Uint64Var(&f.cfg.ScriptMaxSteps, "script-max-steps", 0, "Execution step limit for Code node scripts. 0 is unlimited.")
	pf.DurationVar(&f.cfg.RunTimeout, "run-timeout", 0, "Timeout for a whole chain run. 0 is unlimited.")
	pf.StringVar(&f.cfg.NATSURL, "nats-url", "", "Publish run events to this NATS server.")
	pf.StringVar(&f.cfg.RedisURL, "redis-url", "", "Publish run events to this Redis server.")
	pf.StringVar(&f.cfg.RedisChannel, "redis-channel", events.DefaultRedisChannel, "Redis pub/sub channel for run events.")
	pf.StringVar(&f.cfg.UISocketURL, "ui-socket-url", "", "Push run events to the UI shell's Socket.IO server.")

	return root
}

func newServeCommand(f *flags, build func(app.Mode) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a chain to the UI shell over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return build(app.ModeServe)
		},
	}
	cmd.Flags().StringVar(&f.cfg.Addr, "addr", ":8080", "Address the API server listens on.")
	return cmd
}

func newRunCommand(f *flags, build func(app.Mode) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [GRID_PATH]",
		Short: "Run a chain from a grid file and print a report",
		Long: `Run a chain from a grid file and print a report.

GRID_PATH is a single .hcl file or a directory containing .hcl files.
It takes precedence over --grid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.cfg.GridPath = args[0]
			}
			return build(app.ModeRun)
		},
	}
	cmd.Flags().StringVar(&f.cfg.Start, "start", "", "Node to start from. Defaults to the grid's start node.")
	return cmd
}

// applyEnv loads envFile and then fills every flag not given on the command
// line from its CHAINGRID_* variable. A missing default .env is not an error.
func applyEnv(cmd *cobra.Command, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
				return fmt.Errorf("failed to load env file '%s': %w", envFile, err)
			}
		}
	}

	var errs []error
	cmd.Flags().VisitAll(func(fl *pflag.Flag) {
		if fl.Changed || fl.Name == "env-file" || fl.Name == "help" {
			return
		}
		name := envName(fl.Name)
		val, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if err := fl.Value.Set(val); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func parseVars(raw []string) (map[string]any, error) {
	vars := make(map[string]any, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid var '%s': expected name=value", kv)
		}
		vars[name] = expr.Literal(value)
	}
	return vars, nil
}
